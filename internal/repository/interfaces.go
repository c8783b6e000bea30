package repository

import (
	"context"
	"image"
	"time"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// FetchBlob retrieves an image from blob storage
	FetchBlob(ctx context.Context, containerName, blobName string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// PredictionRepository stores the audit trail of card number predictions.
type PredictionRepository interface {
	Save(ctx context.Context, record *PredictionRecord) error
	FindByID(ctx context.Context, id string) (*PredictionRecord, error)
}

// PredictionRecord is the persisted form of a prediction. The card number
// is only ever stored masked.
type PredictionRecord struct {
	ID                string       `json:"id" bson:"_id"`
	Source            string       `json:"source" bson:"source"`
	SourceRef         string       `json:"source_ref,omitempty" bson:"source_ref,omitempty"`
	Found             bool         `json:"found" bson:"found"`
	Method            string       `json:"method,omitempty" bson:"method,omitempty"`
	Reason            string       `json:"reason,omitempty" bson:"reason,omitempty"`
	MaskedNumber      string       `json:"masked_number,omitempty" bson:"masked_number,omitempty"`
	Confidence        float64      `json:"confidence" bson:"confidence"`
	BBox              [][2]float64 `json:"bbox,omitempty" bson:"bbox,omitempty"`
	TokenCount        int          `json:"token_count" bson:"token_count"`
	Sharpness         float64      `json:"sharpness" bson:"sharpness"`
	Brightness        float64      `json:"brightness" bson:"brightness"`
	QualityIssues     []string     `json:"quality_issues,omitempty" bson:"quality_issues,omitempty"`
	Accuracy          *Accuracy    `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	ProcessingTimeSec float64      `json:"processing_time_sec" bson:"processing_time_sec"`
	CreatedAt         time.Time    `json:"created_at" bson:"created_at"`
}

// Accuracy is recorded when the caller supplied the expected number.
type Accuracy struct {
	ExactMatch bool    `json:"exact_match" bson:"exact_match"`
	CER        float64 `json:"cer" bson:"cer"`
	WER        float64 `json:"wer" bson:"wer"`
}
