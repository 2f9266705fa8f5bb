package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings.
// A nil settings value uses defaults (system proxy, default timeout).
func ConfigureHTTPClient(s *config.Settings) (*nethttp.Client, error) {
	if s == nil {
		s = config.NewSettings()
	}

	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	timeout := s.RequestTimeout()
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	ns := s.Network
	switch strings.ToLower(ns.ProxyMode) {
	case config.ProxyModeNone, "":
		transport.Proxy = nil

	case config.ProxyModeSystem:
		// Use system proxy settings from environment
		transport.Proxy = nethttp.ProxyFromEnvironment

	case config.ProxyModeNTLM:
		// Fall back to no-proxy if host is missing so pairing can still be attempted
		if ns.ProxyHost == "" {
			log.Warn().Msg("Proxy mode is NTLM but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(ns), ns.NoProxy)

		// Wrap transport with NTLM
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: timeout,
		}, nil

	case config.ProxyModeBasic:
		if ns.ProxyHost == "" {
			log.Warn().Msg("Proxy mode is basic but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}

		if ns.ProxyUser != "" && ns.ProxyPassword == "" {
			log.Warn().Msg("Proxy user configured but password missing - proxy auth disabled until password is set")
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(ns), ns.NoProxy)

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", ns.ProxyMode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// buildProxyURL constructs a proxy URL from settings
func buildProxyURL(ns config.NetworkSettings) *url.URL {
	port := ns.ProxyPort
	if port == 0 {
		port = 8080 // Default proxy port
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", ns.ProxyHost, port),
	}

	// Only embed credentials if both user AND password are provided
	// Empty password in URL can cause auth failures with some proxies
	if ns.ProxyUser != "" && ns.ProxyPassword != "" {
		proxyURL.User = url.UserPassword(ns.ProxyUser, ns.ProxyPassword)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL.
// When noProxy is set, uses golang.org/x/net/http/httpproxy to match hosts/CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			log.Debug().Str("host", req.URL.Host).Msg("Proxy bypass (direct connection)")
		} else {
			log.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("Proxied")
		}
		return result, err
	}
}

// NeedsProxyPassword returns true if the proxy configuration requires a password
// but one has not been provided. The CLI prompts for it on a terminal.
func NeedsProxyPassword(s *config.Settings) bool {
	mode := strings.ToLower(s.Network.ProxyMode)
	// Only basic and ntlm modes require credentials
	if mode != config.ProxyModeBasic && mode != config.ProxyModeNTLM {
		return false
	}
	return s.Network.ProxyUser != "" && s.Network.ProxyPassword == ""
}

// proxyActive reports whether requests may be routed through a proxy.
func proxyActive(s *config.Settings) bool {
	switch strings.ToLower(s.Network.ProxyMode) {
	case config.ProxyModeNone, "":
		return false
	case config.ProxyModeSystem:
		env := httpproxy.FromEnvironment()
		return env.HTTPProxy != "" || env.HTTPSProxy != ""
	default:
		return s.Network.ProxyHost != ""
	}
}
