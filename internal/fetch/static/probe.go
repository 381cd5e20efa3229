package staticfetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

// ProbeURL performs the one-shot reachability probe behind the resolver's
// scheme-downgrade rule. A politeness delay runs before every probe. The
// response status is irrelevant; only the transport outcome matters, and it
// is classified as a secure-transport failure, a connectivity failure, or
// success.
func (b *Backend) ProbeURL(ctx context.Context, rawURL string) error {
	if err := politenessDelay(ctx, scrape.ProbeDelay); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", scrape.ErrConnectivity, err)
	}
	if b.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", b.cfg.UserAgent)
	}

	resp, err := b.probeClient.Do(req)
	if err != nil {
		return classifyProbeError(err)
	}
	_ = resp.Body.Close()
	return nil
}

func politenessDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("politeness delay: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// classifyProbeError maps a transport error onto the resolver's taxonomy:
// TLS-layer failures become ErrSecureTransport, everything else counts as
// a connectivity failure.
func classifyProbeError(err error) error {
	if isSecureTransportError(err) {
		return fmt.Errorf("%w: %v", scrape.ErrSecureTransport, err)
	}
	return fmt.Errorf("%w: %v", scrape.ErrConnectivity, err)
}

func isSecureTransportError(err error) bool {
	var (
		certVerify *tls.CertificateVerificationError
		recordHdr  tls.RecordHeaderError
		unknownCA  x509.UnknownAuthorityError
		hostname   x509.HostnameError
		certInv    x509.CertificateInvalidError
	)
	if errors.As(err, &certVerify) ||
		errors.As(err, &recordHdr) ||
		errors.As(err, &unknownCA) ||
		errors.As(err, &hostname) ||
		errors.As(err, &certInv) {
		return true
	}
	// Handshake alerts from the peer surface as plain errors with a tls
	// prefix in the message.
	return strings.Contains(err.Error(), "tls:")
}
