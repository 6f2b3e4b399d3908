package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

const containerInitTimeout = 30 * time.Second

// AzureBlobStorage stores objects as block blobs in one container
type AzureBlobStorage struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewAzureBlobStorage connects to Azure Blob Storage and ensures the container exists.
// target is either a connection string or an account URL
// (https://<account>.blob.core.windows.net), which authenticates with the
// default Azure credential chain.
func NewAzureBlobStorage(target, container string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := newBlobClient(target)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %s: %w", container, err)
	}

	logger.Info("Azure Blob Storage initialized", zap.String("container", container))
	return &AzureBlobStorage{client: client, container: container, logger: logger.Named("blob")}, nil
}

func newBlobClient(target string) (*azblob.Client, error) {
	if strings.HasPrefix(target, "https://") {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}
		client, err := azblob.NewClient(target, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
		return client, nil
	}

	client, err := azblob.NewClientFromConnectionString(target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return client, nil
}

// Put uploads data as the blob named key and returns the bytes written
func (s *AzureBlobStorage) Put(ctx context.Context, key string, contentType string, data io.Reader) (int64, error) {
	name, err := CleanKey(key)
	if err != nil {
		return 0, err
	}

	uploadedAt := time.Now().UTC().Format(time.RFC3339)
	body := &countingReader{r: data}
	_, err = s.client.UploadStream(ctx, s.container, name, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		Metadata:    map[string]*string{"uploaded_at": &uploadedAt},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	s.logger.Info("Blob uploaded",
		zap.String("blob", name),
		zap.String("content_type", contentType),
		zap.Int64("size", body.n),
	)
	return body.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Download streams the blob named key
func (s *AzureBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	name, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case err != nil:
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	return resp.Body, nil
}

// Delete removes the blob named key. A missing blob is not an error.
func (s *AzureBlobStorage) Delete(ctx context.Context, key string) error {
	name, err := CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteBlob(ctx, s.container, name, nil)
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		s.logger.Debug("Blob already absent", zap.String("blob", name))
		return nil
	case err != nil:
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}

	s.logger.Info("Blob deleted", zap.String("blob", name))
	return nil
}
