package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemes(t *testing.T) {
	var all = All()
	for scheme := range Local() {
		require.Contains(t, all, scheme)
	}
	require.Len(t, all, 7)
}
