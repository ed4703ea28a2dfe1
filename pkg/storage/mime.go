package storage

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

// MIME helpers used by the blob backend and the upload validator.
const (
	MIMEOctetStream    = "application/octet-stream"
	mimeDetectionBytes = 512 // http.DetectContentType requires up to 512 bytes
)

// mimeExtensions maps MIME types to preferred file extensions.
var mimeExtensions = map[string]string{
	// Images
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
	"image/avif":    ".avif",
	// Documents
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       ".xlsx",
	"text/plain": ".txt",
	"text/csv":   ".csv",
	// Design files
	"application/postscript":    ".ai",
	"image/vnd.adobe.photoshop": ".psd",
	"application/zip":           ".zip",
}

// DetectBytes detects the MIME type from a blob's leading bytes.
// Returns "application/octet-stream" when detection fails.
func DetectBytes(data []byte) string {
	if len(data) == 0 {
		return MIMEOctetStream
	}
	if len(data) > mimeDetectionBytes {
		data = data[:mimeDetectionBytes]
	}
	return http.DetectContentType(data)
}

// DetectReader detects the MIME type from a reader's magic bytes and returns
// a reader positioned at the start of the content. Seekable inputs are
// rewound in place; anything else is buffered into memory.
func DetectReader(r io.Reader) (string, io.Reader) {
	if rs, ok := r.(io.ReadSeeker); ok {
		buf := make([]byte, mimeDetectionBytes)
		n, _ := rs.Read(buf)
		_, _ = rs.Seek(0, io.SeekStart)
		if n > 0 {
			return http.DetectContentType(buf[:n]), rs
		}
		return MIMEOctetStream, rs
	}

	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return MIMEOctetStream, bytes.NewReader(nil)
	}

	return http.DetectContentType(data), bytes.NewReader(data)
}

// ExtFromMIME returns the preferred file extension for a MIME type.
// Returns empty string for unknown types.
func ExtFromMIME(mimeType string) string {
	return mimeExtensions[NormalizeMIME(mimeType)]
}

// NormalizeMIME extracts the base MIME type, removing parameters like charset.
// Returns the lowercase MIME type.
func NormalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}

// MatchMIME checks whether a MIME type matches any of the allowed patterns.
// Supports wildcards like "image/*".
func MatchMIME(mimeType string, allowed []string) bool {
	mimeType = NormalizeMIME(mimeType)

	for _, pattern := range allowed {
		pattern = strings.TrimSpace(strings.ToLower(pattern))

		if mimeType == pattern {
			return true
		}

		if strings.HasSuffix(pattern, "/*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}

	return false
}
