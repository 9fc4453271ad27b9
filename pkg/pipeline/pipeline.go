// Package pipeline runs one full annotation pass: gather candidate objects
// from the local catalogs and the remote region query, project and size
// them, render the overlay and the thumbnail grid, and write the outputs.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gonkane/galaxy-annotate/pkg/aggregate"
	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/host"
	"github.com/gonkane/galaxy-annotate/pkg/patch"
	"github.com/gonkane/galaxy-annotate/pkg/render"
	"github.com/gonkane/galaxy-annotate/pkg/simbad"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// Request holds the per-run parameters.
type Request struct {
	// OutputStem is the user-facing output name; the overlay, table and
	// combined files derive from it. Empty selects
	// "annotated_<input base name>".
	OutputStem string

	// Title is drawn in the band above the image and names the main
	// object. Empty selects the input base name.
	Title string

	LogoPath     string
	OverlayAlpha float64
	OverlayStyle render.Style

	// Selection is the catalog snapshot for this run.
	Selection catalog.Selection

	// CatalogDir holds the local CSV catalogs. Empty selects the host's
	// config directory.
	CatalogDir string
}

// Driver runs annotation passes against one host.
type Driver struct {
	host     host.Host
	registry *catalog.Registry
	client   *simbad.Client
}

// New creates a driver. A nil client selects the default SIMBAD endpoint.
func New(h host.Host, registry *catalog.Registry, client *simbad.Client) *Driver {
	if registry == nil {
		registry = catalog.DefaultRegistry()
	}
	if client == nil {
		client = simbad.NewClient("")
	}
	return &Driver{host: h, registry: registry, client: client}
}

// Run executes one annotation pass and returns the number of annotated
// objects. Zero objects is a clean outcome: nothing is rendered and no
// files are written.
func (d *Driver) Run(ctx context.Context, req Request) (int, error) {
	if !d.host.ImageLoaded() {
		return 0, fmt.Errorf("no image loaded")
	}
	proj := d.host.Projector()
	if proj == nil {
		return 0, fmt.Errorf("image is not plate-solved")
	}

	width, height := d.host.Dimensions()
	req = d.applyDefaults(req)

	d.host.Progress(0, "querying catalogs")
	rows := d.gatherRows(ctx, proj, width, height, req)

	agg := aggregate.New(proj, d.registry, req.Selection, width, height)
	work, projErrs := agg.Assemble(rows)
	for _, pe := range projErrs {
		d.host.Log("could not project %s (%.4f, %.4f): %s", pe.MainID, pe.RA, pe.Dec, pe.Reason)
	}
	if len(work) == 0 {
		d.host.Log("no objects found in the image field")
		d.host.Progress(1, "done, nothing to annotate")
		return 0, nil
	}

	d.host.Progress(0.1, fmt.Sprintf("sizing %d objects", len(work)))
	sizer := patch.NewSizer(proj, width, height, agg.MinPatch(), d.host.Log)
	for i := range work {
		sizer.Size(&work[i])
		d.host.Progress(0.1+0.1*float64(i+1)/float64(len(work)), "sizing objects")
	}

	r := render.New(render.Options{
		Title:    req.Title,
		LogoPath: req.LogoPath,
		Alpha:    req.OverlayAlpha,
		Style:    req.OverlayStyle,
		MinPatch: agg.MinPatch(),
	}, req.Selection, proj)

	img := d.host.Image()

	d.host.Progress(0.2, "drawing overlay")
	overlay, err := r.Overlay(img, work)
	if err != nil {
		return 0, fmt.Errorf("render overlay: %w", err)
	}
	d.host.Progress(0.3, "overlay done")

	d.host.Progress(0.4, "building thumbnail grid")
	grid, err := r.ThumbnailGrid(img, work)
	if err != nil {
		return 0, fmt.Errorf("render grid: %w", err)
	}
	d.host.Progress(0.7, "grid done")

	d.host.Progress(0.8, "compositing")
	combined := r.Composite(overlay, grid)

	d.host.Progress(0.9, "saving")
	if err := render.SaveImage(overlay, render.OverlayFilename(req.OutputStem)); err != nil {
		return 0, err
	}
	if err := render.SaveImage(grid, render.TableFilename(req.OutputStem)); err != nil {
		return 0, err
	}
	if err := render.SaveImage(combined, render.CombinedFilename(req.OutputStem)); err != nil {
		return 0, err
	}

	d.host.Progress(1, fmt.Sprintf("annotated %d objects", len(work)))
	return len(work), nil
}

// applyDefaults fills the name-derived request fields.
func (d *Driver) applyDefaults(req Request) Request {
	base := filepath.Base(d.host.ImageFilename())
	stem := base[:len(base)-len(filepath.Ext(base))]
	if req.OutputStem == "" {
		req.OutputStem = "annotated_" + stem
	}
	if req.Title == "" {
		req.Title = stem
	}
	return req
}

// gatherRows loads the enabled local catalogs in registry order, then
// appends the remote query result. A failed remote query is logged and
// contributes zero rows; the local catalogs still annotate.
func (d *Driver) gatherRows(ctx context.Context, proj wcs.Projector, width, height int, req Request) []catalog.Row {
	var rows []catalog.Row

	dir := req.CatalogDir
	if dir == "" {
		dir = d.host.ConfigDir()
	}
	for _, def := range d.registry.LocalDefinitions() {
		if !req.Selection.Enabled(def.Code) {
			continue
		}
		local := catalog.LoadLocal(filepath.Join(dir, def.FileName), def.Code)
		d.host.Log("local catalog %s: %d objects", def.Code, len(local))
		rows = append(rows, local...)
	}

	if !d.remoteEnabled(req.Selection) {
		d.host.Log("no remote catalogs enabled; skipping remote query")
		return rows
	}

	q, err := d.buildQuery(proj, width, height)
	if err != nil {
		d.host.Log("remote query skipped: %v", err)
		return rows
	}
	remote, err := d.client.QueryRegion(ctx, q)
	if err != nil {
		d.host.Log("remote query failed: %v", err)
		return rows
	}
	d.host.Log("remote query: %d objects", len(remote))
	return append(rows, remote...)
}

// remoteEnabled reports whether the selection contains any catalog resolved
// through the remote query. A local-only selection never goes on the wire.
func (d *Driver) remoteEnabled(sel catalog.Selection) bool {
	for _, def := range d.registry.Definitions() {
		if !def.Local && sel.Enabled(def.Code) {
			return true
		}
	}
	return false
}

// minQuerySizePix is the smallest on-image extent worth querying for;
// galaxies below it would be invisible among the noise.
const minQuerySizePix = 5

// buildQuery derives the region query from the image footprint: center and
// radius from the corner projection, the minimum angular size from the
// pixel scale so sub-pixel-scale galaxies are excluded at the source.
func (d *Driver) buildQuery(proj wcs.Projector, width, height int) (simbad.Query, error) {
	ra, dec, err := wcs.Center(proj, width, height)
	if err != nil {
		return simbad.Query{}, fmt.Errorf("image center: %w", err)
	}
	radius, err := wcs.FootprintRadiusDeg(proj, width, height)
	if err != nil {
		return simbad.Query{}, fmt.Errorf("footprint radius: %w", err)
	}
	scale, err := wcs.PixelScaleArcmin(proj)
	if err != nil {
		return simbad.Query{}, fmt.Errorf("pixel scale: %w", err)
	}
	return simbad.Query{
		CenterRA:      ra,
		CenterDec:     dec,
		RadiusDeg:     radius,
		MinSizeArcmin: scale * minQuerySizePix,
		ExcludeTypes:  d.registry.LocalCodes(),
	}, nil
}
