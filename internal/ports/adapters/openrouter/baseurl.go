package openrouter

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/forPelevin/clipline/internal/types"
)

const defaultBaseURL = "https://openrouter.ai"

var defaultAllowedHosts = []string{"openrouter.ai", "api.openrouter.ai"}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL rejects base URLs that could leak the API key: anything
// but https to an allowed host, credentials in the URL, or a query/fragment.
// Plain http is accepted only for an explicitly allowed loopback host.
// Errors wrap types.ErrConfiguration.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)
	bad := func(reason string, args ...any) error {
		return fmt.Errorf("%w: invalid openrouter base_url %q: %s", types.ErrConfiguration, baseURL, fmt.Sprintf(reason, args...))
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid openrouter base_url: %w", types.ErrConfiguration, err)
	}
	switch {
	case !u.IsAbs() || u.Host == "":
		return bad("absolute URL with host is required")
	case u.User != nil:
		return bad("userinfo is not allowed")
	case u.RawQuery != "" || u.Fragment != "" || u.ForceQuery:
		return bad("query and fragment are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return bad("host is required")
	}
	allowed := allowedHostSet(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return bad("host %q is not in openrouter allowed_hosts", host)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		return nil
	case "http":
		if len(allowedHosts) > 0 && isLoopback(host) {
			return nil
		}
	}
	return bad("https is required")
}

// allowedHostSet reduces entries such as " https://Proxy.internal:8443/ " to
// bare lowercase host names. An empty result means the defaults.
func allowedHostSet(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if hostOnly, _, err := net.SplitHostPort(v); err == nil {
			v = hostOnly
		}
		if v != "" {
			out[v] = struct{}{}
		}
	}
	if len(out) == 0 {
		for _, h := range defaultAllowedHosts {
			out[h] = struct{}{}
		}
	}
	return out
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
