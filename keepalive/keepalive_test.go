package keepalive

import (
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenerAndTransport(t *testing.T) {
	var ln, err = net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var srv = &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})}
	go func() { _ = srv.Serve(TCPListener{ln.(*net.TCPListener)}) }()
	defer srv.Close()

	var client = &http.Client{Transport: NewTransport()}
	resp, err := client.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
