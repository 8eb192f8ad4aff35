//go:build !tesseract

package image

import "context"

const ocrEnabled = false

func tesseract(context.Context, []byte, string) (string, float64, error) {
	return "", 0, ErrOCRNotEnabled
}
