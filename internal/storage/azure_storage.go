package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobHostSuffix identifies Azure blob endpoints.
const BlobHostSuffix = ".blob.core.windows.net"

// AzureBlobFetcher reads images from an Azure storage account.
type AzureBlobFetcher struct {
	account  string
	client   *azblob.Client
	maxBytes int64
}

// NewAzureBlobFetcher creates a fetcher authenticated with a shared key.
// Blobs larger than maxBytes are rejected; maxBytes <= 0 means no limit.
func NewAzureBlobFetcher(accountName, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, BlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureBlobFetcher{account: accountName, client: client, maxBytes: maxBytes}, nil
}

// FetchImage downloads https://<account>.blob.core.windows.net/<container>/<blob>.
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) (*SourceImage, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, containerName, blobName)
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if s.maxBytes > 0 && resp.ContentLength != nil && *resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: blob is %d bytes, limit is %d", ErrImageTooLarge, *resp.ContentLength, s.maxBytes)
	}
	data, err := ReadLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}
	return DecodeImage(bytes.NewReader(data), blobName)
}

// IsBlobURL reports whether source points at an Azure blob endpoint.
func IsBlobURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && strings.HasSuffix(strings.ToLower(u.Hostname()), BlobHostSuffix)
}

// ParseBlobURL splits a blob URL into container and blob name.
func ParseBlobURL(blobURL string) (containerName, blobName string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid blob URL %q: want /<container>/<blob>", blobURL)
	}
	return parts[0], parts[1], nil
}
