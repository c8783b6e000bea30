package repository

import (
	"context"
	"image"

	"github.com/anime-shed/card-number-reader/internal/storage"
	"github.com/anime-shed/card-number-reader/pkg/validation"
)

// StorageImageRepository implements ImageRepository on top of the HTTP
// fetcher and an optional blob store.
type StorageImageRepository struct {
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
	validator *validation.URLValidator
}

// NewStorageImageRepository creates an image repository. blobs may be nil,
// in which case FetchBlob returns ErrBlobStorageDisabled.
func NewStorageImageRepository(fetcher storage.ImageFetcher, blobs storage.BlobStorage, validator *validation.URLValidator) *StorageImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &StorageImageRepository{
		fetcher:   fetcher,
		blobs:     blobs,
		validator: validator,
	}
}

func (r *StorageImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return r.fetcher.FetchImage(ctx, imageURL)
}

func (r *StorageImageRepository) FetchBlob(ctx context.Context, containerName, blobName string) (image.Image, error) {
	if r.blobs == nil {
		return nil, ErrBlobStorageDisabled
	}
	return r.blobs.GetImage(ctx, containerName, blobName)
}

func (r *StorageImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
