package factory

import (
	"fmt"

	"go-sem-scalebar/internal/config"
	"go-sem-scalebar/internal/repository"
	"go-sem-scalebar/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		fetcher, err := storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxRequestBodySize)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case LocalStorage:
		if f.cfg.LocalImageRoot == "" {
			return nil, fmt.Errorf("local storage requires LOCAL_IMAGE_ROOT")
		}
		return storage.NewLocalImageFetcher(f.cfg.LocalImageRoot), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// NewImageRepository builds a repository from every storage type the
// configuration enables. HTTP is always available.
func NewImageRepository(f StorageFactory) (*repository.SourceImageRepository, error) {
	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}

	// Azure and local are optional.
	azureFetcher, _ := f.CreateStorage(AzureStorage)
	localFetcher, _ := f.CreateStorage(LocalStorage)

	return repository.NewSourceImageRepository(httpFetcher, azureFetcher, localFetcher), nil
}
