package recognizer

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess prepares a frame for detection: it shrinks frames larger than
// maxDimension, converts to grayscale and boosts contrast and edges.
func Preprocess(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	if maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	contrast := imaging.AdjustContrast(gray, 20)
	return imaging.Sharpen(contrast, 1.0)
}
