package classify

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const trailingURLJunk = ".,;:!?)/"

// NormalizeURL trims whitespace and strips trailing punctuation and slashes
// so that equivalent links compare equal.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), trailingURLJunk)
}

// HasScheme reports whether raw carries an explicit http or https scheme.
func HasScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Host returns the lower-cased host of raw without port. When raw has no
// authority part the path is used instead, so bare domains like
// "example.com/x" still yield something usable.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(raw)
	}
	if host := u.Hostname(); host != "" {
		return strings.ToLower(host)
	}
	host := u.Path
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

// Suffix returns the ICANN public suffix of host. Privately registered
// suffixes such as blogspot.com are skipped so that blog platforms resolve
// to the suffix of their parent domain.
func Suffix(host string) string {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}
	for {
		suffix, icann := publicsuffix.PublicSuffix(host)
		if icann {
			return suffix
		}
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			return suffix
		}
		host = suffix[i+1:]
	}
}

// RegistrableDomain returns the second-level label plus public suffix of the
// URL's host, e.g. "news.bbc.co.uk" yields "bbc.co.uk". Hosts without a
// recognisable suffix are returned unchanged.
func RegistrableDomain(raw string) string {
	host := Host(raw)
	suffix := Suffix(host)
	if suffix == "" || host == suffix {
		return host
	}
	rest := strings.TrimSuffix(host, "."+suffix)
	if rest == host {
		return host
	}
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		rest = rest[i+1:]
	}
	if rest == "" {
		return host
	}
	return rest + "." + suffix
}
