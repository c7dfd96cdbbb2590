package harvester

import (
	"errors"
	"net/url"
	"strings"
)

// Validation errors surfaced to the API layer.
var (
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidProtocol    = errors.New("URL must be http or https")
	ErrDomainNotSupported = errors.New("profile domain not supported")
)

// ValidateURL parses raw and checks that it is an absolute http(s) URL.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidProtocol
	}
	return u, nil
}

// NormalizeHost lowercases a hostname and strips a leading "www.".
// Hostname comparison throughout the pipeline happens on this form.
func NormalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// resolveCandidate turns a raw candidate href into an absolute URL.
// Path-rooted hrefs are resolved against the profile origin; anything
// else must already be absolute. Candidates that cannot be resolved are
// discarded (ok=false), never errored.
func resolveCandidate(href string, origin *url.URL) (*url.URL, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if strings.HasPrefix(href, "/") {
		return origin.ResolveReference(parsed), true
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, false
	}
	return parsed, true
}

// titleFromPath infers a display title from the last non-empty path
// segment, with hyphens and underscores turned into spaces.
func titleFromPath(u *url.URL) string {
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		title := strings.ReplaceAll(segments[i], "-", " ")
		title = strings.ReplaceAll(title, "_", " ")
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}
	return defaultShopTitle
}
