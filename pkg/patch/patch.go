// Package patch computes per-object annotation sizes in pixels from catalog
// angular sizes, with the fallback heuristics needed where catalogs are
// incomplete or unreliable.
package patch

import (
	"log"
	"math"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// namedSizeOverrides carries angular sizes (arcmin) for a handful of bright
// Messier objects the remote catalog reports without size data. The list is
// ad hoc and known to be incomplete; it is not extended speculatively.
var namedSizeOverrides = map[string]float64{
	"M8":  90,
	"M40": 0.86,
	"M43": 20,
	"M78": 8,
	"M82": 11.2,
}

// ledaMaxPlausibleArcmin is an empirical cutoff: LEDA size fields above this
// are treated as unreliable and the object gets the minimum patch instead.
const ledaMaxPlausibleArcmin = 1.8

// Sizer computes annotation patch sizes for one image.
type Sizer struct {
	proj     wcs.Projector
	width    int
	height   int
	minPatch int
	logf     func(format string, args ...any)
}

// NewSizer creates a sizer. minPatch is the image's minimum patch size
// (see aggregate.MinPatchSize). logf receives per-object non-fatal
// warnings; nil selects the stdlib logger.
func NewSizer(proj wcs.Projector, width, height, minPatch int, logf func(string, ...any)) *Sizer {
	if logf == nil {
		logf = log.Printf
	}
	return &Sizer{proj: proj, width: width, height: height, minPatch: minPatch, logf: logf}
}

// Size fills in row.PatchSize and row.DiameterPix. The final patch size is
// clipped so its bounding box stays inside the image.
func (s *Sizer) Size(row *catalog.Row) {
	patch, diameter := s.compute(row)
	row.DiameterPix = diameter
	row.PatchSize = s.Clip(patch, row.PixelX, row.PixelY)
}

// compute returns the patch size before edge clipping, plus the projected
// diameter in pixels used for circle annotations.
func (s *Sizer) compute(row *catalog.Row) (patch int, diameterPix float64) {
	angular := row.AngularMajorAxis
	if math.IsNaN(angular) {
		angular = 0
		if row.Type == "M" {
			if v, ok := namedSizeOverrides[row.MainID]; ok {
				angular = v
			}
		}
	}

	// LEDA size fields are often wildly overestimated; large values there
	// mean "use the minimum", not "draw a huge box".
	if row.Type == "LEDA" && row.HasSize() && row.AngularMajorAxis > ledaMaxPlausibleArcmin {
		s.logf("Unlikely large LEDA galaxy %s: %v -> patch size %d", row.MainID, row.AngularMajorAxis, s.minPatch)
		return s.minPatch, float64(s.minPatch)
	}

	if angular == 0 {
		return s.minPatch, float64(s.minPatch)
	}

	d, err := s.projectedDiameter(row.RA, row.Dec, angular)
	if err != nil {
		s.logf("%s: WCS radius estimation failed: %v", row.MainID, err)
		return s.minPatch, float64(s.minPatch)
	}
	patch = int(math.Round(d * 2))
	if patch < s.minPatch {
		patch = s.minPatch
	}
	return patch, d
}

// projectedDiameter projects four sky points offset by the half-size along
// ±RA/±Dec and averages the two resulting pixel distances.
func (s *Sizer) projectedDiameter(ra, dec, angularArcmin float64) (float64, error) {
	halfDeg := (angularArcmin / 2.0) / 60.0

	xTop, yTop, ok1 := wcs.SafeSkyToPixel(s.proj, ra, dec+halfDeg)
	xBot, yBot, ok2 := wcs.SafeSkyToPixel(s.proj, ra, dec-halfDeg)
	xLeft, yLeft, ok3 := wcs.SafeSkyToPixel(s.proj, ra-halfDeg, dec)
	xRight, yRight, ok4 := wcs.SafeSkyToPixel(s.proj, ra+halfDeg, dec)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, errProjection
	}

	dDec := math.Hypot(xTop-xBot, yTop-yBot)
	dRA := math.Hypot(xRight-xLeft, yRight-yLeft)
	return (dDec + dRA) / 2.0, nil
}

// Clip bounds a patch size so the square centered on (px, py) cannot cross
// any image edge.
func (s *Sizer) Clip(patch int, px, py float64) int {
	x := math.Round(px)
	y := math.Round(py)
	clipped := math.Min(float64(patch), (float64(s.width)-x)*2)
	clipped = math.Min(clipped, (float64(s.height)-y)*2)
	clipped = math.Min(clipped, x*2)
	clipped = math.Min(clipped, y*2)
	if clipped < 0 {
		clipped = 0
	}
	return int(clipped)
}

type projectionError struct{}

func (projectionError) Error() string {
	return "projector returned an error or non-finite coordinates"
}

var errProjection = projectionError{}
