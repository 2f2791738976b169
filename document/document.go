package document

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedType is returned for uploads that are not plain text or markdown.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrInvalidEncoding is returned when the upload is not valid UTF-8.
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")
)

// SupportedExtensions lists the upload types accepted by the question form.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Document is an uploaded file decoded as text.
type Document struct {
	Filename string
	Text     string
}

// IsSupported checks the filename extension against SupportedExtensions.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Read consumes r fully and decodes it as UTF-8. No size limit is applied.
func Read(r io.Reader, filename string) (*Document, error) {
	if !IsSupported(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(filename))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w", filename, ErrInvalidEncoding)
	}

	return &Document{
		Filename: filepath.Base(filename),
		Text:     string(data),
	}, nil
}
