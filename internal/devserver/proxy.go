package devserver

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/thaw-dev/thaw-cli/internal/config"
)

// standardPorts maps a scheme to the port httputil.ReverseProxy's Host
// rewrite should omit for standard scheme:port pairs.
var standardPorts = map[string]string{
	"http":  "80",
	"ws":    "80",
	"https": "443",
	"wss":   "443",
}

// buildProxyTarget computes the upstream URL for r given the default
// backend URL and the configured proxy rules, applying the first matching
// rule as an outer rewrite over the default. Returns (target, changeOrigin,
// error) where a non-nil error means the URI failed to parse (caller
// responds 400).
func buildProxyTarget(r *http.Request, backendURL string, rules []config.ProxyRule) (*url.URL, bool, error) {
	base := backendURL
	changeOrigin := false

	for _, rule := range rules {
		if strings.HasPrefix(r.URL.Path, rule.Proxy) {
			base = rule.Target
			changeOrigin = rule.ChangeOrigin
			break
		}
	}

	target, err := url.Parse(base + r.URL.RequestURI())
	if err != nil {
		return nil, false, err
	}
	return target, changeOrigin, nil
}

// newReverseProxy builds an httputil.ReverseProxy that rewrites each
// request's URL to the result of buildProxyTarget, translating upstream
// connection failures to a 502 that never propagates as a raw Go panic or
// bare connection error to the browser.
func newReverseProxy(backendURL string, rules []config.ProxyRule) *httputil.ReverseProxy {
	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			target, changeOrigin, err := buildProxyTarget(req, backendURL, rules)
			if err != nil {
				// Director cannot itself write a response; ErrorHandler
				// sees the malformed-target marker via a sentinel host.
				req.URL.Scheme = ""
				req.URL.Host = ""
				return
			}
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.URL.Path = target.Path
			req.URL.RawQuery = target.RawQuery
			if changeOrigin {
				req.Host = hostWithoutStandardPort(target)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if r.URL.Scheme == "" && r.URL.Host == "" {
				http.Error(w, "400 Bad Request", http.StatusBadRequest)
				return
			}
			http.Error(w, "502 Backend service unavailable", http.StatusBadGateway)
		},
	}
	return proxy
}

func hostWithoutStandardPort(u *url.URL) string {
	host := u.Host
	if port, ok := standardPorts[u.Scheme]; ok && strings.HasSuffix(host, ":"+port) {
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}
