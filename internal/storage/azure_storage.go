package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureSink uploads reports as block blobs
type AzureSink struct {
	client    *azblob.Client
	container string
}

// NewAzureSink creates a sink authenticated with a shared key
func NewAzureSink(accountName, accountKey, container string) (*AzureSink, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureSink{client: client, container: container}, nil
}

// NewAzureSinkWithClient wraps an existing client
func NewAzureSinkWithClient(client *azblob.Client, container string) *AzureSink {
	return &AzureSink{client: client, container: container}
}

func (s *AzureSink) Name() string { return "azure" }

func (s *AzureSink) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentType),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + name, nil
}
