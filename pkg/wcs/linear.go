package wcs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Linear is a small-field linear approximation of a FITS WCS solution:
// reference point (CRVAL), reference pixel (CRPIX) and the CD rotation/scale
// matrix, with a cos(dec) correction on the RA axis. It is not a projection
// implementation; spherical projections, SIP and other distortion terms are
// out of scope and belong to the host. It exists so the standalone CLI can
// work from a plate-solved FITS header without a host attached.
type Linear struct {
	crval1, crval2 float64 // reference sky position, degrees
	crpix1, crpix2 float64 // reference pixel, 1-based per FITS convention
	cd             [4]float64
	inv            [4]float64
	cosDec         float64
}

// HeaderValues gives NewLinear access to header cards without binding it to
// a concrete FITS reader.
type HeaderValues interface {
	Float(key string) (float64, bool)
}

// NewLinear builds a linear projector from explicit WCS parameters.
// The CD matrix must be invertible.
func NewLinear(crval1, crval2, crpix1, crpix2 float64, cd [4]float64) (*Linear, error) {
	m := mat.NewDense(2, 2, []float64{cd[0], cd[1], cd[2], cd[3]})
	var invM mat.Dense
	if err := invM.Inverse(m); err != nil {
		return nil, fmt.Errorf("wcs: CD matrix is singular: %w", err)
	}
	cosDec := math.Cos(crval2 * math.Pi / 180)
	if math.Abs(cosDec) < 1e-9 {
		return nil, fmt.Errorf("wcs: reference declination %v too close to pole for linear approximation", crval2)
	}
	return &Linear{
		crval1: crval1, crval2: crval2,
		crpix1: crpix1, crpix2: crpix2,
		cd:     cd,
		inv:    [4]float64{invM.At(0, 0), invM.At(0, 1), invM.At(1, 0), invM.At(1, 1)},
		cosDec: cosDec,
	}, nil
}

// LinearFromHeader builds a linear projector from FITS header cards.
// Accepts a CD matrix (CD1_1..CD2_2) or falls back to CDELT1/CDELT2.
// Returns an error when the header carries no usable solution, which the
// host reports as "image not plate solved".
func LinearFromHeader(h HeaderValues) (*Linear, error) {
	crval1, ok1 := h.Float("CRVAL1")
	crval2, ok2 := h.Float("CRVAL2")
	crpix1, ok3 := h.Float("CRPIX1")
	crpix2, ok4 := h.Float("CRPIX2")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("wcs: header has no CRVAL/CRPIX cards, image is not plate solved")
	}

	var cd [4]float64
	cd11, okCD := h.Float("CD1_1")
	if okCD {
		cd[0] = cd11
		cd[1], _ = h.Float("CD1_2")
		cd[2], _ = h.Float("CD2_1")
		cd22, ok := h.Float("CD2_2")
		if !ok {
			return nil, fmt.Errorf("wcs: incomplete CD matrix in header")
		}
		cd[3] = cd22
	} else {
		cdelt1, okA := h.Float("CDELT1")
		cdelt2, okB := h.Float("CDELT2")
		if !okA || !okB {
			return nil, fmt.Errorf("wcs: header has neither CD matrix nor CDELT cards")
		}
		cd = [4]float64{cdelt1, 0, 0, cdelt2}
	}
	return NewLinear(crval1, crval2, crpix1, crpix2, cd)
}

// PixelToSky converts a pixel position to ICRS degrees.
func (l *Linear) PixelToSky(x, y float64) (ra, dec float64, err error) {
	dx := x - (l.crpix1 - 1)
	dy := y - (l.crpix2 - 1)
	xi := l.cd[0]*dx + l.cd[1]*dy
	eta := l.cd[2]*dx + l.cd[3]*dy
	ra = l.crval1 + xi/l.cosDec
	dec = l.crval2 + eta
	if ra < 0 {
		ra += 360
	} else if ra >= 360 {
		ra -= 360
	}
	return ra, dec, nil
}

// SkyToPixel converts ICRS degrees to a pixel position.
func (l *Linear) SkyToPixel(ra, dec float64) (x, y float64, err error) {
	dra := ra - l.crval1
	// wrap to the nearest representation of the same angle
	if dra > 180 {
		dra -= 360
	} else if dra < -180 {
		dra += 360
	}
	xi := dra * l.cosDec
	eta := dec - l.crval2
	dx := l.inv[0]*xi + l.inv[1]*eta
	dy := l.inv[2]*xi + l.inv[3]*eta
	return dx + (l.crpix1 - 1), dy + (l.crpix2 - 1), nil
}
