//go:build !ocr
// +build !ocr

package recognizer

import (
	"context"
	"image"
)

// OCRAvailable 指示是否编译了 OCR 支持
const OCRAvailable = false

// TesseractDetector 是 OCR 不可用时的存根
type TesseractDetector struct{}

// NewTesseractDetector 返回存根检测器
func NewTesseractDetector() *TesseractDetector {
	return &TesseractDetector{}
}

func (d *TesseractDetector) Name() string { return "tesseract" }

// Detect 总是返回 ErrOCRNotEnabled
func (d *TesseractDetector) Detect(ctx context.Context, img image.Image, opts Options) ([]Observation, error) {
	return nil, ErrOCRNotEnabled
}

func (d *TesseractDetector) Close() error { return nil }
