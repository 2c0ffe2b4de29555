package services

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const previewUnavailable = "File uploaded successfully. Content preview not available."

// decodeText returns a readable preview of an uploaded text document. UTF-8 is
// tried first, then ISO-8859-1. When neither decodes, a fixed notice is returned.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return previewUnavailable
	}
	return string(decoded)
}
