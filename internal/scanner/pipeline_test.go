package scanner

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PhiFever/pantryscan/internal/auth"
	"github.com/PhiFever/pantryscan/internal/camera"
	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/internal/recognizer"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.INFO)
	os.Exit(m.Run())
}

type stubCapturer struct {
	frame *camera.Frame
	calls int
}

func (s *stubCapturer) Capture(ctx context.Context) *camera.Frame {
	s.calls++
	return s.frame
}

type stubRecognizer struct {
	mu        sync.Mutex
	candidate *recognizer.Candidate
	calls     int
}

func (s *stubRecognizer) Recognize(ctx context.Context, img image.Image) *recognizer.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.candidate
}

func (s *stubRecognizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// regionDetector reports a single text region covering half the image.
type regionDetector struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (d *regionDetector) Name() string { return "region" }

func (d *regionDetector) Detect(ctx context.Context, img image.Image, opts recognizer.Options) ([]recognizer.Observation, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	b := img.Bounds()
	return []recognizer.Observation{{
		Bounds:         image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dy()/2),
		Transcriptions: []recognizer.Transcription{{Text: d.text, Confidence: 0.95}},
	}}, nil
}

func (d *regionDetector) Close() error { return nil }

func (d *regionDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type brokenDevice struct{}

func (brokenDevice) ID() string { return "broken" }
func (brokenDevice) Position() camera.Position { return camera.PositionBack }
func (brokenDevice) Open() (camera.Source, error) { return brokenSource{}, nil }

type brokenSource struct{}

func (brokenSource) Grab() (image.Image, error) { return nil, errors.New("sensor timeout") }
func (brokenSource) Close() error { return nil }

func testFrame() *camera.Frame {
	return &camera.Frame{
		ID:    uuid.New(),
		Image: image.NewGray(image.Rect(0, 0, 40, 20)),
	}
}

func TestScanOnceReturnsRecognizedText(t *testing.T) {
	rec := &stubRecognizer{candidate: &recognizer.Candidate{Text: "Oat Milk", Area: 0.4}}
	p := New(&stubCapturer{frame: testFrame()}, rec, nil)

	text, ok := p.ScanOnce(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Oat Milk", text)
}

func TestScanOnceWithoutFrameSkipsRecognition(t *testing.T) {
	rec := &stubRecognizer{candidate: &recognizer.Candidate{Text: "never"}}
	p := New(&stubCapturer{}, rec, nil)

	text, ok := p.ScanOnce(context.Background())
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Zero(t, rec.callCount())
}

func TestScanOnceNoText(t *testing.T) {
	rec := &stubRecognizer{}
	p := New(&stubCapturer{frame: testFrame()}, rec, nil)

	_, ok := p.ScanOnce(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, rec.callCount())
}

func TestScanOnceIsNotCached(t *testing.T) {
	capturer := &stubCapturer{frame: testFrame()}
	rec := &stubRecognizer{candidate: &recognizer.Candidate{Text: "Rice"}}
	p := New(capturer, rec, nil)

	for i := 0; i < 3; i++ {
		_, ok := p.ScanOnce(context.Background())
		require.True(t, ok)
	}
	assert.Equal(t, 3, capturer.calls)
	assert.Equal(t, 3, rec.callCount())

	stats := p.Statistics()
	assert.Equal(t, uint64(3), stats["scans"])
	assert.Equal(t, uint64(3), stats["matches"])
}

func TestScanAsyncDeliversOnDispatcher(t *testing.T) {
	posted := make(chan func(), 1)
	dispatcher := camera.DispatchFunc(func(fn func()) { posted <- fn })

	rec := &stubRecognizer{candidate: &recognizer.Candidate{Text: "Honey"}}
	p := New(&stubCapturer{frame: testFrame()}, rec, dispatcher)

	var got string
	var gotOK bool
	p.ScanAsync(context.Background(), func(text string, ok bool) {
		got, gotOK = text, ok
	})

	select {
	case fn := <-posted:
		assert.Empty(t, got, "result must not be delivered before the dispatcher runs it")
		fn()
	case <-time.After(time.Second):
		t.Fatal("scan result was not posted")
	}
	assert.True(t, gotOK)
	assert.Equal(t, "Honey", got)
}

// pipelineFixture wires the real camera stack over device.
type pipelineFixture struct {
	controller *camera.Controller
	detector   *regionDetector
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T, device camera.Device) *pipelineFixture {
	t.Helper()

	dir := t.TempDir()
	permission := filepath.Join(dir, "permission.yaml")
	require.NoError(t, os.WriteFile(permission, []byte("camera: authorized\n"), 0600))
	gate := auth.NewGate(auth.NewFilePlatform(permission, false, nil))

	session := camera.NewLocalSession()
	output := camera.NewStillOutput()
	ctl := camera.NewController(camera.ControllerOptions{
		Authorizer: gate,
		Discoverer: camera.DiscovererFunc(func() []camera.Device { return []camera.Device{device} }),
		Session:    session,
		Output:     output,
	})
	t.Cleanup(func() {
		ctl.Close()
		session.Close()
	})

	ctx := context.Background()
	state, err := ctl.Configure(ctx)
	require.NoError(t, err)
	require.Equal(t, camera.PhaseAvailable, state.Phase)
	state, err = ctl.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, camera.PhaseRunning, state.Phase)

	det := &regionDetector{text: "Peanut Butter"}
	rec := recognizer.New(det, recognizer.Config{
		Options: recognizer.Options{Level: recognizer.LevelAccurate, LanguageCorrection: true},
	})

	return &pipelineFixture{
		controller: ctl,
		detector:   det,
		pipeline:   New(camera.NewCoordinator(ctl, output, "png"), rec, nil),
	}
}

func TestScanOnceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(64, 48, color.White)
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "label.png")))

	f := newPipelineFixture(t, camera.NewFolderDevice(dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, ok := f.pipeline.ScanOnce(ctx)
	require.True(t, ok)
	assert.Equal(t, "Peanut Butter", text)
	assert.Equal(t, 1, f.detector.callCount())
}

func TestScanOnceEndToEndCaptureFailure(t *testing.T) {
	f := newPipelineFixture(t, brokenDevice{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, ok := f.pipeline.ScanOnce(ctx)
	assert.False(t, ok)
	assert.Zero(t, f.detector.callCount())
}

func TestScanOnceAfterStop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, imaging.Save(imaging.New(16, 16, color.Black), filepath.Join(dir, "a.png")))

	f := newPipelineFixture(t, camera.NewFolderDevice(dir))
	_, err := f.controller.Stop(context.Background())
	require.NoError(t, err)

	_, ok := f.pipeline.ScanOnce(context.Background())
	assert.False(t, ok)
	assert.Zero(t, f.detector.callCount())
}
