package normalisers

import (
	"fmt"
	"os"
)

// WithTempFile writes content to a temporary file carrying ext and calls fn
// with its path. Readers that only open paths go through here. The file is
// removed when fn returns.
func WithTempFile(content []byte, ext string, fn func(path string) error) error {
	f, err := os.CreateTemp("", "licita-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return fn(path)
}
