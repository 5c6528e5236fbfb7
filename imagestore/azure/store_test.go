package azure

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitContainerPath(t *testing.T) {
	var container, blob, err = splitContainerPath("images/story/baroque.db")
	require.NoError(t, err)
	require.Equal(t, "images", container)
	require.Equal(t, "story/baroque.db", blob)

	for _, bad := range []string{"", "images", "/baroque.db", "images/"} {
		_, _, err = splitContainerPath(bad)
		require.Error(t, err, bad)
	}
}

func TestBlobDomain(t *testing.T) {
	t.Setenv("AZURE_BLOB_DOMAIN", "")
	require.Equal(t, "https://acct.blob.core.windows.net", azureStorageURL("acct", blobDomain()))

	t.Setenv("AZURE_BLOB_DOMAIN", "blob.core.chinacloudapi.cn")
	require.Equal(t, "https://acct.blob.core.chinacloudapi.cn", azureStorageURL("acct", blobDomain()))
}

func TestConstructorsRequireCredentials(t *testing.T) {
	t.Setenv("AZURE_ACCOUNT_KEY", "")
	t.Setenv("AZURE_CLIENT_ID", "")
	t.Setenv("AZURE_CLIENT_SECRET", "")

	var ep, _ = url.Parse("azure://acct/")
	var _, err = NewAccount(ep)
	require.Error(t, err)

	ep, _ = url.Parse("azure-ad://tenant/")
	_, err = NewAD(ep)
	require.EqualError(t, err, "AZURE_CLIENT_ID and AZURE_CLIENT_SECRET must be set for azure-ad:// URLs")
}

func TestAccountStoreConstruction(t *testing.T) {
	// A valid base64 key.
	t.Setenv("AZURE_ACCOUNT_KEY", "a2V5")

	var ep, _ = url.Parse("azure://acct/")
	var s, err = NewAccount(ep)
	require.NoError(t, err)
	require.Equal(t, "azure", s.Provider())
	require.False(t, s.IsAuthError(nil))
}
