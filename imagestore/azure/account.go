package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/Azure/azure-pipeline-go/pipeline"
	"github.com/Azure/azure-storage-blob-go/azblob"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/imagestore"
)

// accountStore reads blobs using Shared Key authentication. Its URLs
// are of form azure://storage-account/container/blob.
type accountStore struct {
	storageAccount string
	blobDomain     string
	pipeline       pipeline.Pipeline
}

// NewAccount creates a new Azure Account authenticated Store from the provided URL.
func NewAccount(ep *url.URL) (imagestore.Store, error) {
	if err := imagestore.ParseStoreArgs(ep, &struct{}{}); err != nil {
		return nil, err
	}
	var storageAccount = ep.Host
	var accountKey = os.Getenv("AZURE_ACCOUNT_KEY")

	if storageAccount == "" || accountKey == "" {
		return nil, fmt.Errorf("azure:// URLs must name a storage account, and AZURE_ACCOUNT_KEY must be set")
	}
	credentials, err := azblob.NewSharedKeyCredential(storageAccount, accountKey)
	if err != nil {
		return nil, err
	}
	var store = &accountStore{
		storageAccount: storageAccount,
		blobDomain:     blobDomain(),
		pipeline:       azblob.NewPipeline(credentials, azblob.PipelineOptions{}),
	}

	log.WithFields(log.Fields{
		"storageAccount": store.storageAccount,
		"blobDomain":     store.blobDomain,
	}).Info("constructed new Azure Shared Key storage client")

	return store, nil
}

func (a *accountStore) Provider() string { return "azure" }

func (a *accountStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	var container, blob, err = splitContainerPath(path)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(fmt.Sprintf("%s/%s/%s", azureStorageURL(a.storageAccount, a.blobDomain), container, blob))
	if err != nil {
		return nil, err
	}
	var blobURL = azblob.NewBlobURL(*u, a.pipeline)

	download, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, err
	}
	return download.Body(azblob.RetryReaderOptions{MaxRetryRequests: 3}), nil
}

func (a *accountStore) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if storageErr, ok := err.(azblob.StorageError); ok {
		switch storageErr.ServiceCode() {
		case azblob.ServiceCodeContainerNotFound,
			azblob.ServiceCodeContainerDisabled,
			azblob.ServiceCodeAccountIsDisabled:
			return true
		}
		if resp := storageErr.Response(); resp != nil && resp.StatusCode == http.StatusForbidden {
			return true
		}
	}
	return false
}
