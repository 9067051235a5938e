// Package extract converts uploaded documents into plain text for grading.
package extract

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Extractor converts one uploaded document into plain text. Image-only
// documents may legitimately produce an empty string; callers decide whether
// the result is long enough to grade.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Plain passes UTF-8 text documents through untouched.
type Plain struct{}

// Extract returns the document bytes as text.
func (Plain) Extract(data []byte) (string, error) {
	return string(data), nil
}

// ForContent sniffs the document type and returns a matching extractor.
func ForContent(data []byte) (Extractor, error) {
	kind := mimetype.Detect(data)

	switch {
	case kind.Is("application/pdf"):
		return PDF{}, nil
	case strings.HasPrefix(kind.String(), "text/"):
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unsupported document type %s", kind.String())
	}
}
