package patch

import (
	"errors"
	"math"
	"testing"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

// scaleProjector maps 1 degree to scalePix pixels in both axes.
type scaleProjector struct {
	scalePix float64
	fail     bool
}

func (p *scaleProjector) PixelToSky(x, y float64) (float64, float64, error) {
	return x / p.scalePix, y / p.scalePix, nil
}

func (p *scaleProjector) SkyToPixel(ra, dec float64) (float64, float64, error) {
	if p.fail {
		return 0, 0, errors.New("projector failure")
	}
	return ra * p.scalePix, dec * p.scalePix, nil
}

func newTestSizer(proj *scaleProjector) *Sizer {
	return NewSizer(proj, 1000, 1000, 10, func(string, ...any) {})
}

func TestSizeZeroAngularSize(t *testing.T) {
	s := newTestSizer(&scaleProjector{scalePix: 100})
	row := catalog.Row{MainID: "M40x", Type: "NGC", AngularMajorAxis: 0, RA: 5, Dec: 5, PixelX: 500, PixelY: 500}
	s.Size(&row)
	if row.PatchSize != 10 || row.DiameterPix != 10 {
		t.Errorf("zero size: patch=%d diameter=%v, want min patch 10", row.PatchSize, row.DiameterPix)
	}
}

func TestSizeMissingUsesMessierOverride(t *testing.T) {
	// 1 degree = 100 pixels, so 90 arcmin = 1.5 deg = 150 px diameter.
	s := newTestSizer(&scaleProjector{scalePix: 100})
	row := catalog.Row{MainID: "M8", Type: "M", AngularMajorAxis: math.NaN(), RA: 5, Dec: 5, PixelX: 500, PixelY: 500}
	s.Size(&row)
	if math.Abs(row.DiameterPix-150) > 1e-6 {
		t.Errorf("M8 diameter = %v px, want 150 (override 90 arcmin, not the zero fallback)", row.DiameterPix)
	}
	if row.PatchSize != 300 {
		t.Errorf("M8 patch = %d, want 300", row.PatchSize)
	}
}

func TestSizeMissingWithoutOverride(t *testing.T) {
	s := newTestSizer(&scaleProjector{scalePix: 100})
	row := catalog.Row{MainID: "M999", Type: "M", AngularMajorAxis: math.NaN(), PixelX: 500, PixelY: 500}
	s.Size(&row)
	if row.PatchSize != 10 {
		t.Errorf("unknown Messier without override: patch=%d, want min", row.PatchSize)
	}
}

func TestSizeLEDAOverride(t *testing.T) {
	s := newTestSizer(&scaleProjector{scalePix: 100})
	row := catalog.Row{MainID: "LEDA100", Type: "LEDA", AngularMajorAxis: 5.0, RA: 5, Dec: 5, PixelX: 500, PixelY: 500}
	s.Size(&row)
	if row.PatchSize != 10 || row.DiameterPix != 10 {
		t.Errorf("large LEDA: patch=%d diameter=%v, want min patch regardless of projection", row.PatchSize, row.DiameterPix)
	}

	// At or below the cutoff the projected size applies. Use a finer
	// pixel scale so 1.2 arcmin resolves to more than the minimum patch.
	fine := newTestSizer(&scaleProjector{scalePix: 2000})
	row = catalog.Row{MainID: "LEDA200", Type: "LEDA", AngularMajorAxis: 1.2, RA: 0.25, Dec: 0.25, PixelX: 500, PixelY: 500}
	fine.Size(&row)
	if row.PatchSize == 10 {
		t.Error("plausible LEDA size should not be forced to the minimum")
	}
}

func TestSizeProjectorFailureFallsBack(t *testing.T) {
	logged := false
	s := NewSizer(&scaleProjector{scalePix: 100, fail: true}, 1000, 1000, 10,
		func(string, ...any) { logged = true })
	row := catalog.Row{MainID: "NGC1", Type: "NGC", AngularMajorAxis: 12, RA: 5, Dec: 5, PixelX: 500, PixelY: 500}
	s.Size(&row)
	if row.PatchSize != 10 {
		t.Errorf("projector failure: patch=%d, want min", row.PatchSize)
	}
	if !logged {
		t.Error("projector failure must be logged as a per-object warning")
	}
}

func TestSizeMonotonicInAngularSize(t *testing.T) {
	s := newTestSizer(&scaleProjector{scalePix: 100})
	prev := 0
	for _, arcmin := range []float64{0.5, 1, 2, 5, 10, 30, 60} {
		row := catalog.Row{MainID: "NGC1", Type: "NGC", AngularMajorAxis: arcmin, RA: 5, Dec: 5}
		patchSize, _ := s.compute(&row)
		if patchSize < prev {
			t.Errorf("patch size decreased: %v arcmin -> %d (prev %d)", arcmin, patchSize, prev)
		}
		prev = patchSize
	}
}

func TestClip(t *testing.T) {
	s := newTestSizer(&scaleProjector{scalePix: 100})
	cases := []struct {
		patch  int
		px, py float64
		want   int
	}{
		{100, 500, 500, 100}, // center: no clipping
		{100, 20, 500, 40},   // near left edge
		{100, 500, 980, 40},  // near bottom edge
		{100, 990, 990, 20},  // corner
		{10, 500, 500, 10},   // minimum stays intact mid-image
	}
	for _, c := range cases {
		if got := s.Clip(c.patch, c.px, c.py); got != c.want {
			t.Errorf("Clip(%d, %v, %v) = %d, want %d", c.patch, c.px, c.py, got, c.want)
		}
	}
}
