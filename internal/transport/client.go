// Package transport builds the outbound HTTP clients shared by the archive
// fetcher and the Telegram notifier.
package transport

import (
	"net/http"
	"net/url"
	"time"

	"IndexTrend/internal/logger"
)

// NewClient returns a client with the given timeout, routed through proxyURL
// when set. An unparseable proxy is logged and ignored.
func NewClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil && u.Host != "" {
			transport.Proxy = http.ProxyURL(u)
		} else {
			logger.Warnf("ignoring invalid proxy %q", proxyURL)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
