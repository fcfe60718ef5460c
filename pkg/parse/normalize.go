package parse

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeLabel folds a label for lookup: NFD decomposition with combining marks removed,
// lowercase, runs of non [a-z0-9] collapsed to one space, trimmed.
// The result is idempotent and independent of the label's language.
func NormalizeLabel(label string) string {
	if label == "" {
		return ""
	}
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(stripMarks, label)
	if err != nil {
		folded = label
	}
	folded = strings.ToLower(folded)
	folded = nonAlphanumeric.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// NormalizeURL standardizes an appliance URL for logging and de-duplication of candidates
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https), ensures an empty path becomes "/", and removes fragments
// The query is kept since some dashboard paths select a language through it
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	}
	normalized.Fragment = ""

	return normalized.String()
}

// CandidateURL joins a scheme, an appliance host and a relative path into a normalized URL string
func CandidateURL(scheme, host, rel string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	parsed, err := url.Parse(fmt.Sprintf("%s://%s%s", scheme, host, rel))
	if err != nil {
		return "", err
	}
	return NormalizeURL(parsed), nil
}
