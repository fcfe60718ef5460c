package archive

import (
	"bytes"
	"path"
	"strings"
)

// sniffLimit is how much of a payload is inspected when sniffing for MIME archive headers
const sniffLimit = 4096

// IsArchive reports whether a payload should be treated as a multipart MIME archive (MHTML).
// Checked in order: extension hint, declared content type, then the first 4 KiB of the body.
func IsArchive(data []byte, contentType, ext string) bool {
	switch strings.ToLower(ext) {
	case ".mhtml", ".mht":
		return true
	}

	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "multipart/related") || strings.Contains(ct, "application/x-mimearchive") {
		return true
	}

	return sniffArchive(data)
}

func sniffArchive(data []byte) bool {
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	head = bytes.ToLower(head)
	if bytes.Contains(head, []byte("content-type: multipart/related")) {
		return true
	}
	return bytes.Contains(head, []byte("mime-version: 1.0")) && bytes.Contains(head, []byte("boundary="))
}

// DetectExtension picks a file extension for a downloaded or uploaded document.
// name may be a URL path or file name; query and fragment are ignored. ".mht" is reported as ".mhtml".
// Without a usable extension the content type and then the body are consulted, defaulting to ".html".
func DetectExtension(name, contentType string, data []byte) string {
	rel := name
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	if ext := strings.ToLower(path.Ext(rel)); ext != "" {
		if ext == ".mht" {
			return ".mhtml"
		}
		return ext
	}

	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "multipart/related") || strings.Contains(ct, "application/x-mimearchive") {
		return ".mhtml"
	}
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml") {
		return ".html"
	}

	if sniffArchive(data) {
		return ".mhtml"
	}
	return ".html"
}
