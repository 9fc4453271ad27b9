// Package aggregate combines the per-catalog row sets into the ordered
// working set the renderer consumes: projected to pixels, filtered to the
// image interior, restricted to the enabled catalogs, deduplicated and
// deterministically sorted.
package aggregate

import (
	"math"
	"strings"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// ProjectionError records one row the projector could not place. These are
// diagnostics, never fatal; the run continues without the row.
type ProjectionError struct {
	MainID string
	RA     float64
	Dec    float64
	Reason string
}

// Aggregator assembles the working set for one image.
type Aggregator struct {
	proj     wcs.Projector
	registry *catalog.Registry
	sel      catalog.Selection
	width    int
	height   int
	minPatch int
}

// New creates an aggregator for an image of the given dimensions.
func New(proj wcs.Projector, registry *catalog.Registry, sel catalog.Selection, width, height int) *Aggregator {
	return &Aggregator{
		proj:     proj,
		registry: registry,
		sel:      sel,
		width:    width,
		height:   height,
		minPatch: MinPatchSize(width, height),
	}
}

// MinPatchSize is the minimum annotation size in pixels, and doubles as the
// bounds-filter margin: round(max(width, height) / 100).
func MinPatchSize(width, height int) int {
	return int(math.Round(float64(max(width, height)) / 100))
}

// MinPatch returns the margin/minimum-patch value for this image.
func (a *Aggregator) MinPatch() int {
	return a.minPatch
}

// Assemble projects, filters, deduplicates and sorts the concatenated row
// sets. Input order must be: local catalogs in registry order, then remote
// rows. An empty result at any stage yields an empty slice and is the
// caller's clean "no objects" outcome, not an error.
func (a *Aggregator) Assemble(rows []catalog.Row) ([]catalog.Row, []ProjectionError) {
	var errs []ProjectionError

	projected := make([]catalog.Row, 0, len(rows))
	for _, row := range rows {
		x, y, ok := wcs.SafeSkyToPixel(a.proj, row.RA, row.Dec)
		if !ok {
			errs = append(errs, ProjectionError{
				MainID: row.MainID,
				RA:     row.RA,
				Dec:    row.Dec,
				Reason: "projection returned an error or non-finite coordinates",
			})
			continue
		}
		row.PixelX = x
		row.PixelY = y
		projected = append(projected, row)
	}

	// Keep only rows strictly inside the image with the margin applied on
	// every edge, so even a minimum-size patch stays in bounds.
	m := float64(a.minPatch)
	inside := projected[:0]
	for _, row := range projected {
		px := math.Round(row.PixelX)
		py := math.Round(row.PixelY)
		if px > m && py > m && px < float64(a.width)-m && py < float64(a.height)-m {
			inside = append(inside, row)
		}
	}

	filtered := inside[:0]
	for _, row := range inside {
		if a.sel.Enabled(row.Type) {
			filtered = append(filtered, row)
		}
	}

	// Deduplicate on the rounded pixel position, first occurrence wins.
	type key struct{ x, y int }
	seen := make(map[key]bool, len(filtered))
	deduped := filtered[:0]
	for _, row := range filtered {
		k := key{int(math.Round(row.PixelX)), int(math.Round(row.PixelY))}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, row)
	}

	for i := range deduped {
		deduped[i].MainID = strings.ReplaceAll(deduped[i].MainID, " ", "")
		deduped[i].SortKey = a.registry.SortKey(deduped[i].Type)
	}
	catalog.SortRows(deduped)
	return deduped, errs
}
