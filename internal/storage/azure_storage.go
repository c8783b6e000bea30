package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/disintegration/imaging"
)

type BlobStorage interface {
	GetImage(ctx context.Context, containerName, blobName string) (image.Image, error)
}

type azureStorage struct {
	client *azblob.Client
}

func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

func (s *azureStorage) GetImage(ctx context.Context, containerName, blobName string) (image.Image, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, err := imaging.Decode(retryReader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob %s/%s: %w", containerName, blobName, err)
	}
	return img, nil
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>
// into container and blob names. The legacy ?blob=<name> form is also accepted.
func ParseBlobURL(blobURL string) (containerName, blobName string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsedURL.Path, "/")
	if legacy := parsedURL.Query().Get("blob"); legacy != "" {
		containerName, blobName = path, legacy
	} else {
		containerName, blobName, _ = strings.Cut(path, "/")
	}

	if containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %q", blobURL)
	}
	return containerName, blobName, nil
}
