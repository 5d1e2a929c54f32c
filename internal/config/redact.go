package config

import (
	"net/url"
	"regexp"
)

// urlPattern matches http(s) and ws(s) URLs embedded in free text, up to the
// first whitespace or quote.
var urlPattern = regexp.MustCompile(`(?:https?|wss?)://[^\s"'<>]+`) //nolint:gochecknoglobals // compiled once

// RedactURL strips credentials, query and path from an RPC URL, since hosted
// providers embed API keys there. "https://host/v3/key" becomes "https://host/…".
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	shown := u.Scheme + "://" + u.Host
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.User != nil {
		shown += "/…"
	}
	return shown
}

// RedactURLs applies RedactURL to every URL inside text.
func RedactURLs(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, RedactURL)
}
