// Package wcs defines the sky/pixel projection contract the annotation
// pipeline consumes, plus the small geometry helpers built on top of it.
//
// The pipeline never does projection math itself: a host application that
// has plate-solved the image supplies a Projector. The helpers here exist
// because projector implementations have a history of returning Inf/NaN
// pixel coordinates for sky positions outside the solved footprint, which
// overflowed downstream integer math. Every coordinate coming back from a
// Projector must be checked for finiteness before any further arithmetic;
// SafeSkyToPixel is the one place that check lives.
package wcs

import (
	"fmt"
	"math"
)

// Projector converts between pixel coordinates and ICRS sky coordinates
// (degrees). Pixel origin and axis orientation are the projector's business;
// callers only require that PixelToSky and SkyToPixel are mutually inverse
// over the solved footprint.
type Projector interface {
	PixelToSky(x, y float64) (ra, dec float64, err error)
	SkyToPixel(ra, dec float64) (x, y float64, err error)
}

// SafeSkyToPixel projects a sky position and reports ok=false when the
// projector errors or returns a non-finite coordinate. Callers drop the
// point instead of propagating NaN/Inf.
func SafeSkyToPixel(p Projector, ra, dec float64) (x, y float64, ok bool) {
	x, y, err := p.SkyToPixel(ra, dec)
	if err != nil {
		return 0, 0, false
	}
	if !isFinite(x) || !isFinite(y) {
		return 0, 0, false
	}
	return x, y, true
}

// PixelScaleArcmin estimates the pixel scale from the angular offset the
// projector reports between pixel (0,0) and pixel (1,1), taking the larger
// of the RA and Dec components.
func PixelScaleArcmin(p Projector) (float64, error) {
	ra0, dec0, err := p.PixelToSky(0, 0)
	if err != nil {
		return 0, fmt.Errorf("pixel scale: %w", err)
	}
	ra1, dec1, err := p.PixelToSky(1, 1)
	if err != nil {
		return 0, fmt.Errorf("pixel scale: %w", err)
	}
	scale := 60 * math.Max(math.Abs(ra1-ra0), math.Abs(dec1-dec0))
	if !isFinite(scale) || scale <= 0 {
		return 0, fmt.Errorf("pixel scale: projector returned degenerate scale %v", scale)
	}
	return scale, nil
}

// FootprintRadiusDeg estimates a search radius for the image footprint as
// the larger of |ΔRA| and |ΔDec| between the image center and the (0,0)
// corner. A single corner can under-cover rotated frames; the query circle
// is still ample for typical fields.
func FootprintRadiusDeg(p Projector, width, height int) (float64, error) {
	centerRA, centerDec, err := p.PixelToSky(float64(width)/2, float64(height)/2)
	if err != nil {
		return 0, fmt.Errorf("footprint radius: %w", err)
	}
	cornerRA, cornerDec, err := p.PixelToSky(0, 0)
	if err != nil {
		return 0, fmt.Errorf("footprint radius: %w", err)
	}
	r := math.Max(math.Abs(centerRA-cornerRA), math.Abs(centerDec-cornerDec))
	if !isFinite(r) || r <= 0 {
		return 0, fmt.Errorf("footprint radius: projector returned degenerate radius %v", r)
	}
	return r, nil
}

// Center returns the sky position of the image center.
func Center(p Projector, width, height int) (ra, dec float64, err error) {
	return p.PixelToSky(float64(width)/2, float64(height)/2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
