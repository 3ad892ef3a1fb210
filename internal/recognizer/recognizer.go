// Package recognizer finds text in a captured frame and picks the single
// candidate most likely to be the item name.
package recognizer

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/pkg/utils"
)

// ErrOCRNotEnabled is returned by the Tesseract detector when the binary
// was built without the ocr tag.
var ErrOCRNotEnabled = errors.New("OCR support not compiled in (use -tags=ocr to enable)")

// Level trades detection speed against accuracy.
type Level int

const (
	LevelAccurate Level = iota
	LevelFast
)

// ParseLevel maps a config value to a Level. Anything but "fast" is accurate.
func ParseLevel(s string) Level {
	if strings.EqualFold(strings.TrimSpace(s), "fast") {
		return LevelFast
	}
	return LevelAccurate
}

// Options configures one detection pass.
type Options struct {
	Level              Level
	LanguageCorrection bool
	Languages          []string
}

// Transcription is one reading of a text region.
type Transcription struct {
	Text       string
	Confidence float64
}

// Observation is one detected text region with its readings.
type Observation struct {
	Bounds         image.Rectangle
	Transcriptions []Transcription
}

// Top returns the most confident transcription. On equal confidence the
// earlier one wins.
func (o Observation) Top() (Transcription, bool) {
	if len(o.Transcriptions) == 0 {
		return Transcription{}, false
	}
	best := o.Transcriptions[0]
	for _, t := range o.Transcriptions[1:] {
		if t.Confidence > best.Confidence {
			best = t
		}
	}
	return best, true
}

// Detector runs text detection over an image.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img image.Image, opts Options) ([]Observation, error)
	Close() error
}

// Candidate is a recognized text span and the area of its region as a
// fraction of the frame.
type Candidate struct {
	Text string
	Area float64
}

// Config controls a Recognizer.
type Config struct {
	Options
	Preprocess   bool
	MaxDimension int
	// Workers bounds how many detection passes run at once.
	Workers int
}

// Recognizer runs detection passes on a bounded worker pool.
type Recognizer struct {
	detector Detector
	cfg      Config
	workers  chan struct{}
}

// New creates a recognizer over detector.
func New(detector Detector, cfg Config) *Recognizer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Recognizer{
		detector: detector,
		cfg:      cfg,
		workers:  make(chan struct{}, cfg.Workers),
	}
}

// Recognize detects text in img and returns the winning candidate, or nil
// when detection failed or found no usable text.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) *Candidate {
	if img == nil {
		return nil
	}

	select {
	case r.workers <- struct{}{}:
	case <-ctx.Done():
		return nil
	}

	result := make(chan *Candidate, 1)
	go func() {
		defer func() { <-r.workers }()
		result <- r.run(ctx, img)
	}()

	select {
	case c := <-result:
		return c
	case <-ctx.Done():
		logger.Warningf("[Recognizer] Caller stopped waiting: %v", ctx.Err())
		return nil
	}
}

// Close releases the detector.
func (r *Recognizer) Close() error {
	return r.detector.Close()
}

func (r *Recognizer) run(ctx context.Context, img image.Image) *Candidate {
	start := time.Now()

	if r.cfg.Preprocess {
		img = Preprocess(img, r.cfg.MaxDimension)
	}

	observations, err := r.detector.Detect(ctx, img, r.cfg.Options)
	if err != nil {
		logger.Warningf("[Recognizer] %s detection failed: %v", r.detector.Name(), err)
		return nil
	}

	candidates := Candidates(observations, img.Bounds())
	best, ok := Select(candidates)
	if !ok {
		logger.Infof("[Recognizer] No text found (%d regions, %s)", len(observations),
			utils.GetReadableTimeDelta(time.Since(start)))
		return nil
	}

	logger.Infof("[Recognizer] Selected %q (area %.3f) from %d candidates in %s",
		best.Text, best.Area, len(candidates), utils.GetReadableTimeDelta(time.Since(start)))
	return &best
}

// Candidates pairs each observation's top transcription with its area
// normalized to frame. Observations without a transcription are skipped.
func Candidates(observations []Observation, frame image.Rectangle) []Candidate {
	total := float64(frame.Dx()) * float64(frame.Dy())
	candidates := make([]Candidate, 0, len(observations))
	for _, o := range observations {
		top, ok := o.Top()
		if !ok {
			continue
		}

		area := 0.0
		if total > 0 {
			box := o.Bounds.Intersect(frame)
			area = float64(box.Dx()) * float64(box.Dy()) / total
		}
		candidates = append(candidates, Candidate{Text: top.Text, Area: area})
	}
	return candidates
}

// Select drops candidates whose trimmed text is empty and returns the one
// with the largest area. Ties go to the earliest candidate.
func Select(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if !found || c.Area > best.Area {
			best = c
			found = true
		}
	}
	return best, found
}
