//go:build tesseract

package image

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

const ocrEnabled = true

func tesseract(ctx context.Context, image []byte, lang string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", 0, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognise: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return text, 0, nil
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return text, sum / float64(len(boxes)), nil
}
