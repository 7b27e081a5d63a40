package httpt_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"qrpay/internal/config"
	httpt "qrpay/internal/transport/http"
	"qrpay/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPConfig(port string) *config.HTTP {
	return &config.HTTP{
		Host:              "127.0.0.1",
		Port:              port,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}
}

func TestHTTPServer_ServesUntilCanceled(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := httpt.NewHTTPServer(handler, testHTTPConfig("0"), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestHTTPServer_BindFailure(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	_, port, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)

	srv := httpt.NewHTTPServer(http.NotFoundHandler(), testHTTPConfig(port), logger.NewNop())
	require.Error(t, srv.Start(context.Background()))
	assert.Empty(t, srv.Addr())
}
