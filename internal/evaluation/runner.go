package evaluation

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// Prediction is what an extractor read from one image. Number is empty
// when no card number was found.
type Prediction struct {
	Number string
	Method string
}

// ExtractFunc reads the card number from the image at path
type ExtractFunc func(ctx context.Context, path string) (Prediction, error)

type CaseReport struct {
	Image     string `json:"image"`
	Expected  string `json:"expected"`
	Predicted string `json:"predicted,omitempty"`
	Method    string `json:"method,omitempty"`
	Error     string `json:"error,omitempty"`
	Score     Score  `json:"score"`
}

type Report struct {
	Cases   []CaseReport `json:"cases"`
	Summary Summary      `json:"summary"`
}

// Run scores every case of m. Extraction errors are recorded on the case
// and count as misses; only context cancellation stops the run.
func Run(ctx context.Context, m *Manifest, extract ExtractFunc) (Report, error) {
	var rep Report
	for _, tc := range m.Cases {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		cr := CaseReport{Image: tc.Image, Expected: tc.Expected}
		pred, err := extract(ctx, tc.Image)
		switch {
		case err != nil:
			cr.Error = err.Error()
		case pred.Number == "":
			cr.Error = "not found"
		default:
			cr.Predicted = pred.Number
			cr.Method = pred.Method
		}

		cr.Score = Compare(tc.Expected, cr.Predicted)
		rep.Summary.Add(cr.Score, cr.Predicted != "")
		rep.Cases = append(rep.Cases, cr)
	}
	return rep, nil
}

// WriteText prints rep as an aligned table followed by the summary line
func WriteText(w io.Writer, rep Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tEXPECTED\tPREDICTED\tMETHOD\tCER\tWER")
	for _, c := range rep.Cases {
		predicted := c.Predicted
		if c.Error != "" {
			predicted = "(" + c.Error + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%.3f\n", c.Image, c.Expected, predicted, c.Method, c.Score.CER, c.Score.WER)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := rep.Summary
	_, err := fmt.Fprintf(w, "\ncases=%d found=%d exact=%d exact_rate=%.3f mean_cer=%.3f mean_wer=%.3f\n",
		s.Cases, s.Found, s.ExactMatches, s.ExactRate, s.MeanCER, s.MeanWER)
	return err
}
