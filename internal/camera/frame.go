package camera

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is one decoded still image.
type Frame struct {
	ID         uuid.UUID
	Image      image.Image
	Format     string
	CapturedAt time.Time
}

// Bounds returns the frame's pixel bounds.
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// DecodeFrame decodes encoded photo data into a frame.
func DecodeFrame(id uuid.UUID, data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty photo data")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decoded photo has no pixels")
	}

	return &Frame{
		ID:         id,
		Image:      img,
		Format:     format,
		CapturedAt: time.Now(),
	}, nil
}
