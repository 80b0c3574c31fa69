package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Hostname returns the lowercased host of an absolute URL, without port
// and without a leading "www.".
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// ValidDomain reports whether domain is a syntactically valid host name
// under a known public suffix, e.g. "example.com" or "blog.example.co.uk".
func ValidDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if len(domain) == 0 || len(domain) > 253 || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if !validLabel(label) {
			return false
		}
	}
	suffix, icann := publicsuffix.PublicSuffix(domain)
	// 未收录的后缀会被当作单段 TLD 返回，此时 icann 为 false
	if !icann && !strings.Contains(suffix, ".") {
		return false
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	return err == nil && etld1 != ""
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
