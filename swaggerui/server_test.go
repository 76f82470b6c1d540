package swaggerui

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	tests := []struct {
		name     string
		maxConns int
	}{
		{"unlimited", 0},
		{"limited", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			h := newTestHandler(t, staticBuild, Config{})
			srv := NewServer(h, ServerConfig{MaxConns: tt.maxConns, Logger: discardLogger()})

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- srv.Serve(ctx, ln)
			}()

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get("http://" + ln.Addr().String() + "/api-docs/swagger.json")
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, string(body), `"swagger": "2.0"`)

			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(10 * time.Second):
				t.Fatal("server did not stop")
			}
		})
	}
}

func TestServerListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(http.NotFoundHandler(), ServerConfig{Addr: ln.Addr().String(), Logger: discardLogger()})
	err = srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
