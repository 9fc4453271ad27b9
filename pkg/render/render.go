// Package render draws the annotated overlay and the thumbnail grid, and
// composites them into the combined image. Drawing
// goes through fogleman/gg, cropping and resizing through
// disintegration/imaging; this package owns only the layout arithmetic.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/webp"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// Style selects the annotation shape drawn around each object.
type Style string

const (
	StyleCircles Style = "circles"
	StyleBoxes   Style = "boxes"
)

// Options are the per-run rendering parameters.
type Options struct {
	Title    string // also names the main object, highlighted regardless of catalog
	LogoPath string
	Alpha    float64 // overlay transparency, 0..1
	Style    Style
	MinPatch int // minimum annotation size in pixels
}

// Renderer produces the output images for one run.
type Renderer struct {
	opts Options
	sel  catalog.Selection
	proj wcs.Projector
}

// New creates a renderer. proj is used only for the sky coordinate grid on
// the overlay; it may be nil, which skips the grid.
func New(opts Options, sel catalog.Selection, proj wcs.Projector) *Renderer {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		opts.Alpha = 0.6
	}
	if opts.Style != StyleBoxes {
		opts.Style = StyleCircles
	}
	return &Renderer{opts: opts, sel: sel, proj: proj}
}

// Composite stacks the overlay above the grid (resized to the overlay's
// width) on an opaque background.
func (r *Renderer) Composite(overlay, grid image.Image) image.Image {
	ow := overlay.Bounds().Dx()
	scaled := imaging.Resize(grid, ow, 0, imaging.Lanczos)
	out := imaging.New(ow, overlay.Bounds().Dy()+scaled.Bounds().Dy(), color.NRGBA{0, 0, 0, 255})
	out = imaging.Paste(out, overlay, image.Pt(0, 0))
	out = imaging.Paste(out, scaled, image.Pt(0, overlay.Bounds().Dy()))
	return out
}

// SaveImage writes an image, choosing the encoder from the file extension.
func SaveImage(img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		defer f.Close()
		if err := webp.Encode(f, img, &webp.Options{Quality: 90}); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		return nil
	default:
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		return nil
	}
}

// colorFor parses the snapshot color of a catalog code, falling back to red
// the same way unknown codes do.
func (r *Renderer) colorFor(code string) colorful.Color {
	c, err := colorful.Hex(r.sel.Color(code))
	if err != nil {
		c, _ = colorful.Hex("#ff0000")
	}
	return c
}

// fontSizeFor picks the label face size per catalog; the bright catalogs
// get larger labels.
func fontSizeFor(code string, isMain bool) float64 {
	if isMain {
		return 20
	}
	switch code {
	case "M", "NGC":
		return 18
	case "SAI", "UGC", "MCG", "IC":
		return 16
	default:
		return 12
	}
}

// loadLogo reads the logo image, with an explicit webp fallback the way the
// decoder registration may miss.
func loadLogo(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err == nil {
		return img, nil
	}
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, fmt.Errorf("logo %s: %w", path, err)
	}
	defer f.Close()
	if img, werr := webp.Decode(f); werr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("logo %s: %w", path, err)
}
