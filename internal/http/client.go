package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
)

// NewClient creates the HTTP client used for all calls to the paired site.
//
// It layers on ConfigureHTTPClient:
//   - HTTP/2 for direct connections (DISABLE_HTTP2=true forces HTTP/1.1)
//   - HTTP/1.1 when a proxy is active, unless FORCE_HTTP2=true
func NewClient(s *config.Settings) (*nethttp.Client, error) {
	if s == nil {
		s = config.NewSettings()
	}

	client, err := ConfigureHTTPClient(s)
	if err != nil {
		return nil, err
	}

	// NTLM wraps the transport; leave it as configured
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		return client, nil
	}

	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	disable := os.Getenv("DISABLE_HTTP2") == "true"
	if proxyActive(s) && os.Getenv("FORCE_HTTP2") != "true" {
		// Proxies often mishandle HTTP/2 multiplexing
		disable = true
	}
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	client.Transport = tr
	return client, nil
}
