package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// domainKeyPattern constrains domain keys to dotted lowercase labels ending
// in a plausible TLD. Articles from hosts that fail this check are rejected.
var domainKeyPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,24}$`)

// DomainOf extracts the lowercased host from a URL and validates it against
// the domain key pattern.
func DomainOf(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		// Schemeless inputs like "example.com/foo" parse with an empty host
		if idx := strings.IndexAny(raw, "/?#"); idx >= 0 {
			host = strings.ToLower(raw[:idx])
		} else {
			host = strings.ToLower(raw)
		}
	}

	if !ValidDomainKey(host) {
		return "", fmt.Errorf("invalid domain key %q", host)
	}
	return host, nil
}

// ValidDomainKey reports whether key is an acceptable domain key.
func ValidDomainKey(key string) bool {
	return domainKeyPattern.MatchString(key)
}

// PathOf extracts the path portion of a URL: path plus query string, with
// the fragment stripped. "http://host/rest?x#y" yields "/rest?x".
func PathOf(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path = path + "?" + parsed.RawQuery
	}
	return path, nil
}

// StripFragment removes the fragment portion of a link target.
func StripFragment(href string) string {
	target, _, _ := strings.Cut(href, "#")
	return target
}
