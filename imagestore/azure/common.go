// Package azure implements image Stores over Azure Blob Storage, authorized
// either by a shared account key (azure://) or by Azure AD (azure-ad://).
package azure

import (
	"fmt"
	"os"
)

const defaultBlobDomain = "blob.core.windows.net"

// blobDomain returns the configured blob domain of storage accounts,
// supporting sovereign clouds.
func blobDomain() string {
	if d := os.Getenv("AZURE_BLOB_DOMAIN"); d != "" {
		return d
	}
	return defaultBlobDomain
}

func azureStorageURL(storageAccount string, blobDomain string) string {
	return fmt.Sprintf("https://%s.%s", storageAccount, blobDomain)
}

// splitContainerPath splits a store path into its container and blob name.
func splitContainerPath(path string) (container, blob string, err error) {
	for i := 0; i != len(path); i++ {
		if path[i] == '/' {
			if i == 0 || i == len(path)-1 {
				break
			}
			return path[:i], path[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("azure image path %q must be of form container/blob", path)
}
