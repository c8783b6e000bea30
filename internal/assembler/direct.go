package assembler

// findDirectMatch returns the first token that already reads as a full card number
func findDirectMatch(tokens []Token) stageOutcome {
	for _, tok := range tokens {
		digits := stripWhitespace(tok.Text)
		if !isDigits(digits, cardNumberLength) {
			continue
		}
		number := AssembledNumber{
			Digits:     digits,
			Confidence: tok.Confidence,
		}
		copy(number.Polygon[:], tok.Polygon)
		return found(number)
	}
	return notFound(ReasonNoDirectMatch)
}
