package llm

import (
	"net"
	"net/http"
	"time"
)

// newLLMHTTPClient creates the HTTP client shared by provider SDKs. It sets
// connection-level limits only; request lifetime is bound by the caller's
// context.
func newLLMHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{Transport: transport}
}

// httpClientFor returns the configured shared client, or a new one when the
// provider is built outside a Registry.
func httpClientFor(cfg ProviderConfig) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return newLLMHTTPClient()
}
