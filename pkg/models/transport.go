package models

// URLPredictionRequest asks for a card number read from an image URL
type URLPredictionRequest struct {
	URL            string `json:"url" binding:"required,url"`
	ExpectedNumber string `json:"expected_number,omitempty"`
}

// BlobPredictionRequest names an image in blob storage, either by container
// and blob or by its full blob URL.
type BlobPredictionRequest struct {
	Container      string `json:"container,omitempty"`
	Blob           string `json:"blob,omitempty"`
	URL            string `json:"url,omitempty"`
	ExpectedNumber string `json:"expected_number,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
