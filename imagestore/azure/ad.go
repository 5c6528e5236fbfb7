package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/imagestore"
)

// adStore reads blobs using Azure AD authentication. Its URLs are of form
// azure-ad://tenant-id/storage-account/container/blob.
type adStore struct {
	tenantID    string
	credentials azcore.TokenCredential

	mu      sync.Mutex
	clients map[string]*service.Client // Keyed on storage account.
}

// NewAD creates a new Azure AD authenticated Store from the provided URL.
// Its root URL names the tenant only, and the storage account is the first
// component of each fetched path.
func NewAD(ep *url.URL) (imagestore.Store, error) {
	if err := imagestore.ParseStoreArgs(ep, &struct{}{}); err != nil {
		return nil, err
	}
	var tenantID = ep.Host
	var clientID = os.Getenv("AZURE_CLIENT_ID")
	var clientSecret = os.Getenv("AZURE_CLIENT_SECRET")

	if tenantID == "" {
		return nil, errors.New("azure-ad:// URLs must name a tenant: azure-ad://tenant-id/storage-account/container/blob")
	} else if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("AZURE_CLIENT_ID and AZURE_CLIENT_SECRET must be set for azure-ad:// URLs")
	}

	var credentials, err = azidentity.NewClientSecretCredential(
		tenantID,
		clientID,
		clientSecret,
		&azidentity.ClientSecretCredentialOptions{
			DisableInstanceDiscovery: true,
		},
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tenant":     tenantID,
		"blobDomain": blobDomain(),
	}).Info("constructed new Azure AD storage client")

	return &adStore{
		tenantID:    tenantID,
		credentials: credentials,
		clients:     make(map[string]*service.Client),
	}, nil
}

// serviceClient returns the cached client of |storageAccount|.
func (a *adStore) serviceClient(storageAccount string) (*service.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if client, ok := a.clients[storageAccount]; ok {
		return client, nil
	}
	var client, err = service.NewClient(
		azureStorageURL(storageAccount, blobDomain()),
		a.credentials,
		&service.ClientOptions{},
	)
	if err != nil {
		return nil, err
	}
	a.clients[storageAccount] = client
	return client, nil
}

func (a *adStore) Provider() string { return "azure-ad" }

func (a *adStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	var parts = strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("azure-ad image path %q must be of form storage-account/container/blob", path)
	}
	var container, blob, err = splitContainerPath(parts[1])
	if err != nil {
		return nil, err
	}
	client, err := a.serviceClient(parts[0])
	if err != nil {
		return nil, err
	}
	resp, err := client.NewContainerClient(container).NewBlobClient(blob).DownloadStream(ctx, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a *adStore) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if bloberror.HasCode(err,
		bloberror.ContainerNotFound,
		bloberror.ContainerDisabled,
		bloberror.AccountIsDisabled,
		bloberror.AuthorizationFailure,
		bloberror.AuthorizationPermissionMismatch,
	) {
		return true
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusForbidden || respErr.StatusCode == http.StatusUnauthorized
	}
	var authErr *azidentity.AuthenticationFailedError
	return errors.As(err, &authErr)
}
