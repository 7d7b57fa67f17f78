// Package domaincheck provides domain and URL investigation helpers: TLD
// validation, DNS resolution, SSL abuse-list lookups, and screenshots via
// an external capture API.
package domaincheck

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Components are the structural parts of a domain name.
type Components struct {
	Subdomain string `json:"subdomain"`
	Domain    string `json:"domain"`
	Suffix    string `json:"suffix"`
}

// ValidateTLD reports whether the domain ends in a valid public TLD
// (one managed by ICANN rather than a private-use suffix).
func ValidateTLD(urlOrDomain string) bool {
	host := ExtractHost(strings.ToLower(urlOrDomain))
	if host == "" {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	return icann && suffix != ""
}

// DomainComponents splits a domain into subdomain, registered domain, and
// public suffix. Unregistrable inputs return whatever parts are present.
func DomainComponents(urlOrDomain string) Components {
	host := ExtractHost(strings.ToLower(urlOrDomain))
	if host == "" {
		return Components{}
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	comp := Components{Suffix: suffix}

	etldPlusOne, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// host is the bare suffix or otherwise unregistrable
		return comp
	}
	comp.Domain = strings.TrimSuffix(etldPlusOne, "."+suffix)
	if rest := strings.TrimSuffix(host, etldPlusOne); rest != "" {
		comp.Subdomain = strings.TrimSuffix(rest, ".")
	}
	return comp
}

// URLComponents returns the parsed parts of a URL as a map. Parse failures
// return an empty map.
func URLComponents(raw string) map[string]string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return map[string]string{}
	}
	parts := map[string]string{
		"scheme":   parsed.Scheme,
		"host":     parsed.Hostname(),
		"port":     parsed.Port(),
		"path":     parsed.Path,
		"query":    parsed.RawQuery,
		"fragment": parsed.Fragment,
	}
	if parsed.User != nil {
		parts["auth"] = parsed.User.Username()
	}
	return parts
}

// ExtractHost strips scheme, path, and port from a URL or bare domain.
func ExtractHost(urlOrDomain string) string {
	host := urlOrDomain
	if strings.Contains(host, "://") {
		if parsed, err := url.Parse(host); err == nil && parsed.Hostname() != "" {
			return parsed.Hostname()
		}
	}
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	host = strings.Split(host, "/")[0]
	host = strings.Split(host, ":")[0]
	return host
}
