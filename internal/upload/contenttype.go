package upload

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// sniffLen is the number of leading bytes used for content sniffing.
const sniffLen = 512

// DetectContentType picks the Content-Type for a file. The extension wins;
// files without a known extension are sniffed from their first bytes.
func DetectContentType(name string, head []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return defaultContentType
}
