package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"

	"github.com/PhiFever/pantryscan/pkg/utils"
)

// ErrNoImages is returned when a folder device has nothing to replay.
var ErrNoImages = errors.New("no images in folder")

// ScreenDevice captures a display. The configured display is reported as
// back-facing so it can stand in for the world-facing lens on a desktop.
type ScreenDevice struct {
	display  int
	position Position
}

// NewScreenDevice creates a device for the display index.
func NewScreenDevice(display int, position Position) *ScreenDevice {
	return &ScreenDevice{display: display, position: position}
}

func (d *ScreenDevice) ID() string { return fmt.Sprintf("screen:%d", d.display) }
func (d *ScreenDevice) Position() Position { return d.position }

// Open checks that the display exists.
func (d *ScreenDevice) Open() (Source, error) {
	n := screenshot.NumActiveDisplays()
	if d.display < 0 || d.display >= n {
		return nil, fmt.Errorf("invalid display index: %d (available: %d)", d.display, n)
	}
	return &screenSource{display: d.display}, nil
}

type screenSource struct {
	display int
}

func (s *screenSource) Grab() (image.Image, error) {
	n := screenshot.NumActiveDisplays()
	if s.display >= n {
		return nil, fmt.Errorf("display %d disconnected", s.display)
	}

	bounds := screenshot.GetDisplayBounds(s.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}

func (s *screenSource) Close() error { return nil }

// DiscoverScreens lists the active displays. The primary display faces back,
// the others are unspecified.
func DiscoverScreens(primary int) Discoverer {
	return DiscovererFunc(func() []Device {
		n := screenshot.NumActiveDisplays()
		devices := make([]Device, 0, n)
		for i := 0; i < n; i++ {
			position := PositionUnspecified
			if i == primary {
				position = PositionBack
			}
			devices = append(devices, NewScreenDevice(i, position))
		}
		return devices
	})
}

// FolderDevice replays the image files of a directory in name order,
// wrapping around at the end.
type FolderDevice struct {
	dir string
}

// NewFolderDevice creates a back-facing device reading from dir.
func NewFolderDevice(dir string) *FolderDevice {
	return &FolderDevice{dir: dir}
}

func (d *FolderDevice) ID() string { return "folder:" + d.dir }
func (d *FolderDevice) Position() Position { return PositionBack }

// Open lists the images in the directory.
func (d *FolderDevice) Open() (Source, error) {
	files, err := utils.ListImageFiles(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, d.dir)
	}
	return &folderSource{files: files}, nil
}

// DiscoverFolder reports a single folder device when dir exists.
func DiscoverFolder(dir string) Discoverer {
	return DiscovererFunc(func() []Device {
		if _, err := utils.ListImageFiles(dir); err != nil {
			return nil
		}
		return []Device{NewFolderDevice(dir)}
	})
}

type folderSource struct {
	mu    sync.Mutex
	files []string
	next  int
}

func (s *folderSource) Grab() (image.Image, error) {
	s.mu.Lock()
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return img, nil
}

func (s *folderSource) Close() error { return nil }
