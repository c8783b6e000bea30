package models

// CardNumberResponse is returned when a card number was read from an image
type CardNumberResponse struct {
	ID         string `json:"id"`
	CardNumber string `json:"card_number"`
	// Four corners clockwise from top-left, in source image pixels
	BBox              [][2]float64 `json:"bbox"`
	Confidence        float64      `json:"confidence"`
	Method            string       `json:"method"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
	Accuracy          *Accuracy    `json:"accuracy,omitempty"`
	QualityIssues     []string     `json:"quality_issues,omitempty"`
}

// Accuracy compares the read number with one supplied by the caller
type Accuracy struct {
	ExpectedNumber string  `json:"expected_number"`
	ExactMatch     bool    `json:"exact_match"`
	CER            float64 `json:"cer"`
	WER            float64 `json:"wer"`
}

// HealthResponse is served by the health endpoint
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Time       string `json:"time"`
	OCREngine  string `json:"ocr_engine,omitempty"`
	OCRWorkers int    `json:"ocr_workers,omitempty"`
}
