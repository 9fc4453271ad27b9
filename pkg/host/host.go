// Package host abstracts the environment the annotation pipeline runs in.
// An embedding application (an image processing suite with its own loaded
// image and plate solve) implements Host directly; the standalone CLI uses
// FileHost, which loads the image itself.
package host

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/gonkane/galaxy-annotate/internal/fitsio"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// Host is what the pipeline needs from its environment: the image under
// annotation, its astrometric solution, and somewhere to report progress.
type Host interface {
	// ImageLoaded reports whether an image is available at all.
	ImageLoaded() bool

	// Image returns the loaded image for cropping and drawing.
	Image() image.Image

	// Dimensions returns the image size in pixels.
	Dimensions() (width, height int)

	// Projector returns the image's sky projection, or nil when the image
	// is not plate-solved.
	Projector() wcs.Projector

	// ImageFilename returns the source file name, used to derive default
	// output names and the default title.
	ImageFilename() string

	// ConfigDir returns the directory for the persisted settings file and
	// the local catalog CSVs.
	ConfigDir() string

	// Log receives run diagnostics.
	Log(format string, args ...any)

	// Progress receives completion fractions in [0,1] with a short status.
	Progress(frac float64, status string)
}

// FileHost is the standalone Host: it loads FITS or raster images from
// disk. FITS images with WCS header cards get a linear projector; raster
// images are never plate-solved.
type FileHost struct {
	path      string
	img       image.Image
	proj      wcs.Projector
	configDir string
}

// stretch percentiles applied to FITS data for display.
const (
	fitsStretchLow  = 0.005
	fitsStretchHigh = 0.995
)

// OpenFile loads an image for standalone use. FITS files are decoded and
// percentile-stretched; anything else goes through the raster decoders.
func OpenFile(path string) (*FileHost, error) {
	h := &FileHost{path: path}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit", ".fits", ".fts":
		f, err := fitsio.Open(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		f.Stretch(fitsStretchLow, fitsStretchHigh)
		h.img = f.Image()
		if proj, err := wcs.LinearFromHeader(f); err == nil {
			h.proj = proj
		} else {
			log.Printf("%s: no usable WCS solution: %v", path, err)
		}
	default:
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		h.img = img
	}

	if dir, err := os.UserConfigDir(); err == nil {
		h.configDir = filepath.Join(dir, "galaxy-annotate")
	}
	return h, nil
}

func (h *FileHost) ImageLoaded() bool { return h.img != nil }

func (h *FileHost) Image() image.Image { return h.img }

func (h *FileHost) Dimensions() (int, int) {
	b := h.img.Bounds()
	return b.Dx(), b.Dy()
}

func (h *FileHost) Projector() wcs.Projector { return h.proj }

func (h *FileHost) ImageFilename() string { return h.path }

func (h *FileHost) ConfigDir() string { return h.configDir }

// SetConfigDir overrides the settings/catalog directory, for the -config
// CLI flag.
func (h *FileHost) SetConfigDir(dir string) { h.configDir = dir }

func (h *FileHost) Log(format string, args ...any) {
	log.Printf(format, args...)
}

// Progress logs coarse progress; the standalone host has no progress bar.
func (h *FileHost) Progress(frac float64, status string) {
	log.Printf("[%3.0f%%] %s", frac*100, status)
}
