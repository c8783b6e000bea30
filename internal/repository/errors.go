package repository

import "errors"

var (
	// ErrBlobStorageDisabled is returned when no blob storage is configured
	ErrBlobStorageDisabled = errors.New("blob storage not configured")

	// ErrPredictionNotFound indicates no prediction exists for the requested id
	ErrPredictionNotFound = errors.New("prediction not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
