// Package archive turns a downloaded dashboard payload, possibly a multipart/related MIME
// archive (MHTML), into a single HTML document. Decoding is best-effort: malformed archives
// fall back to the raw payload and never produce an error.
package archive

import (
	"bytes"
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	boundaryParam    = regexp.MustCompile(`(?i)boundary="?([^";\r\n]+)"?`)
	charsetParam     = regexp.MustCompile(`(?i)charset="?([^";\r\n]+)"?`)
	delimiterLine    = regexp.MustCompile(`(?i)\r?\n--([^\r\n]+)\r?\ncontent-type:`)
	blankLine        = regexp.MustCompile(`\r?\n\r?\n`)
	softLineBreak    = regexp.MustCompile(`=\r?\n`)
	hexEscape        = regexp.MustCompile(`=([0-9A-Fa-f]{2})`)
	base64Whitespace = regexp.MustCompile(`\s+`)
)

// Result is the outcome of decoding a payload
type Result struct {
	HTML      string // Decoded markup, or the raw payload when nothing could be extracted
	Ext       string // Extension for a persisted copy (".htm" once converted)
	Detected  bool   // Payload looked like a MIME archive
	Converted bool   // An HTML part was actually extracted from the archive
}

// Decode converts a payload into HTML text.
// Non-archive payloads are returned unchanged; for archives the first text/html part is decoded
// according to its transfer encoding and charset.
func Decode(data []byte, contentType, ext string) Result {
	res := Result{HTML: string(data), Ext: ext}
	if res.Ext == "" {
		res.Ext = ".htm"
	}
	if !IsArchive(data, contentType, ext) {
		return res
	}
	res.Detected = true

	boundary := findBoundary(data, contentType)
	if boundary == "" {
		return res
	}

	html, ok := extractHTMLPart(data, boundary)
	if !ok {
		return res
	}
	res.HTML = html
	res.Ext = ".htm"
	res.Converted = true
	return res
}

// findBoundary takes the boundary from the declared content type, then from the archive's own
// top-level headers, then from the first delimiter line followed by a part header
func findBoundary(data []byte, contentType string) string {
	if m := boundaryParam.FindStringSubmatch(contentType); m != nil {
		return strings.TrimSpace(m[1])
	}

	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	if loc := blankLine.FindIndex(head); loc != nil {
		if m := boundaryParam.FindSubmatch(head[:loc[0]]); m != nil {
			return strings.TrimSpace(string(m[1]))
		}
	}

	if m := delimiterLine.FindSubmatch(data); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

func extractHTMLPart(data []byte, boundary string) (string, bool) {
	delimiter := []byte("--" + boundary)

	// The first section is the preamble. A section starting with "--" follows the close delimiter.
	for _, section := range bytes.Split(data, delimiter)[1:] {
		if bytes.HasPrefix(section, []byte("--")) {
			break
		}
		part, ok := partContent(section)
		if !ok {
			continue
		}

		loc := blankLine.FindIndex(part)
		if loc == nil {
			continue
		}
		headers := parseHeaderBlock(string(part[:loc[0]]))
		body := part[loc[1]:]

		partType := headers["content-type"]
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(partType, ";", 2)[0]))
		if !strings.Contains(mediaType, "text/html") {
			continue
		}

		charset := ""
		if m := charsetParam.FindStringSubmatch(partType); m != nil {
			charset = m[1]
		}

		raw, ok := decodeTransfer(body, headers["content-transfer-encoding"])
		if !ok {
			continue
		}
		html := decodeCharset(raw, charset)
		if strings.TrimSpace(html) != "" {
			return html, true
		}
	}
	return "", false
}

// partContent drops the rest of the delimiter line and the line break that belongs to the next
// delimiter, leaving headers and body untouched
func partContent(section []byte) ([]byte, bool) {
	nl := bytes.IndexByte(section, '\n')
	if nl < 0 {
		return nil, false
	}
	part := section[nl+1:]
	if bytes.HasSuffix(part, []byte("\r\n")) {
		part = part[:len(part)-2]
	} else if bytes.HasSuffix(part, []byte("\n")) {
		part = part[:len(part)-1]
	}
	return part, len(part) > 0
}

// parseHeaderBlock reads "Key: value" lines into a map with lowercased keys.
// Folded continuation lines are appended to the previous header.
func parseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)
	lastKey := ""
	for _, line := range strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n") {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			headers[lastKey] += " " + strings.TrimSpace(line)
			continue
		}
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		headers[key] = strings.TrimSpace(line[idx+1:])
		lastKey = key
	}
	return headers
}

func decodeTransfer(body []byte, transferEncoding string) ([]byte, bool) {
	enc := strings.ToLower(transferEncoding)
	switch {
	case strings.Contains(enc, "base64"):
		clean := base64Whitespace.ReplaceAll(body, nil)
		out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
		n, err := base64.StdEncoding.Decode(out, clean)
		if err != nil {
			// Some writers drop the padding
			n, err = base64.RawStdEncoding.Decode(out, bytes.TrimRight(clean, "="))
			if err != nil {
				return nil, false
			}
		}
		return out[:n], true
	case strings.Contains(enc, "quoted-printable"):
		return decodeQuotedPrintable(body), true
	default:
		return body, true
	}
}

// decodeQuotedPrintable removes soft line breaks and then expands =XX escapes.
// Invalid escapes are left as-is instead of failing the part.
func decodeQuotedPrintable(body []byte) []byte {
	joined := softLineBreak.ReplaceAll(body, nil)
	return hexEscape.ReplaceAllFunc(joined, func(m []byte) []byte {
		v, err := strconv.ParseUint(string(m[1:]), 16, 8)
		if err != nil {
			return m
		}
		return []byte{byte(v)}
	})
}

func decodeCharset(raw []byte, charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "iso-8859-1", "latin1", "latin-1", "iso8859-1":
		if s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	case "windows-1252", "cp1252":
		if s, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	case "us-ascii", "ascii":
		return decodeASCII(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

func decodeASCII(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c < utf8.RuneSelf {
			b.WriteByte(c)
		} else {
			b.WriteRune(utf8.RuneError)
		}
	}
	return b.String()
}
