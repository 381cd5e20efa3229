package staticfetch

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

func TestProbeURLReachableHost(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	b := New(Config{Timeout: 5 * time.Second}, nil)
	require.NoError(t, b.ProbeURL(context.Background(), ts.URL),
		"only the transport outcome matters, not the status code")
}

func TestProbeURLClassifiesTLSFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	// The probe client does not trust the test server's certificate, so
	// the handshake fails at the verification step.
	b := New(Config{Timeout: 5 * time.Second}, nil)
	err := b.ProbeURL(context.Background(), ts.URL)
	require.ErrorIs(t, err, scrape.ErrSecureTransport)
}

func TestProbeURLClassifiesConnectionFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	b := New(Config{Timeout: 5 * time.Second}, nil)
	err = b.ProbeURL(context.Background(), "http://"+addr+"/")
	require.ErrorIs(t, err, scrape.ErrConnectivity)
}

func TestProbeURLHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(Config{Timeout: 5 * time.Second}, nil)
	require.Error(t, b.ProbeURL(ctx, "http://127.0.0.1:1/"))
}
