//go:build ocr
// +build ocr

package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// OCRAvailable 指示是否编译了 OCR 支持
const OCRAvailable = true

// TesseractDetector detects text lines with Tesseract. A new client is
// created per pass so passes can run concurrently.
type TesseractDetector struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractDetector creates a Tesseract-backed detector.
func NewTesseractDetector() *TesseractDetector {
	return &TesseractDetector{clientFactory: gosseract.NewClient}
}

func (d *TesseractDetector) Name() string { return "tesseract" }

// Detect returns one observation per text line.
func (d *TesseractDetector) Detect(ctx context.Context, img image.Image, opts Options) ([]Observation, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := d.clientFactory()
	defer client.Close()

	if len(opts.Languages) > 0 {
		if err := client.SetLanguage(opts.Languages...); err != nil {
			return nil, fmt.Errorf("failed to set languages: %w", err)
		}
	}

	mode := gosseract.PSM_AUTO
	if opts.Level == LevelFast {
		mode = gosseract.PSM_SPARSE_TEXT
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	correction := "0"
	if opts.LanguageCorrection {
		correction = "1"
	}
	if err := client.SetVariable(gosseract.SettableVariable("tessedit_enable_dict_correction"), correction); err != nil {
		return nil, fmt.Errorf("failed to set dictionary correction: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	observations := make([]Observation, 0, len(boxes))
	for _, b := range boxes {
		observations = append(observations, Observation{
			Bounds: b.Box,
			Transcriptions: []Transcription{
				{Text: b.Word, Confidence: b.Confidence / 100.0},
			},
		})
	}
	return observations, nil
}

// Close is a no-op; clients are closed after each pass.
func (d *TesseractDetector) Close() error { return nil }
