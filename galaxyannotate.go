// Package galaxyannotate annotates plate-solved astronomical images with
// the galaxies and deep-sky objects they contain.
//
// Candidate objects come from local Messier/IC/NGC catalog files and from a
// SIMBAD TAP region query covering the image footprint. Each object is
// projected to pixel coordinates, sized from its angular extent, and drawn
// on an annotated overlay; a grid of per-object thumbnails is produced
// alongside, and both are stacked into a combined image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		galaxyannotate "github.com/gonkane/galaxy-annotate"
//		"github.com/gonkane/galaxy-annotate/pkg/host"
//	)
//
//	func main() {
//		// Open a plate-solved FITS image
//		h, err := host.OpenFile("ngc253.fits")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Annotate with the default catalogs and settings
//		ann := galaxyannotate.New(h)
//		n, err := ann.Annotate(context.Background(), galaxyannotate.Params{
//			OutputStem: "ngc253_annotated",
//			Title:      "NGC 253",
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("annotated %d objects\n", n)
//	}
//
// The package consists of these main components:
//
//  1. Host (pkg/host): the image, its plate solve, and progress reporting
//  2. Catalog (pkg/catalog): the catalog registry and local CSV loaders
//  3. SIMBAD client (pkg/simbad): the TAP region query
//  4. Aggregate (pkg/aggregate): projection, filtering and ordering
//  5. Patch (pkg/patch): annotation sizing heuristics
//  6. Render (pkg/render): overlay, thumbnail grid and combined output
//  7. Pipeline (pkg/pipeline): the end-to-end run
//
// Objects are numbered in catalog order (Messier first, then IC, NGC, and
// the remote catalogs), so the overlay labels and the thumbnail grid line
// up. An image without objects produces no output files; that is a clean
// outcome, not an error.
package galaxyannotate

import (
	"context"

	"github.com/gonkane/galaxy-annotate/internal/config"
	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/host"
	"github.com/gonkane/galaxy-annotate/pkg/pipeline"
	"github.com/gonkane/galaxy-annotate/pkg/render"
	"github.com/gonkane/galaxy-annotate/pkg/simbad"
)

// Version of the annotation library
const Version = "1.0.0"

// Params are the user-facing annotation parameters. Zero values select the
// persisted settings and name-derived defaults.
type Params struct {
	// OutputStem names the output files; empty derives
	// "annotated_<input>" from the image filename.
	OutputStem string

	// Title for the band above the image; empty derives it from the image
	// filename. The title also names the main object, which is drawn
	// highlighted.
	Title string

	// LogoPath overrides the persisted logo setting when non-empty.
	LogoPath string

	// OverlayAlpha overrides the persisted transparency when positive.
	OverlayAlpha float64

	// OverlayStyle overrides the persisted style when non-empty:
	// "circles" or "boxes".
	OverlayStyle string

	// Catalogs is a comma list of catalog codes to enable, e.g.
	// "M,NGC,LEDA". Empty selects the persisted or default selection.
	Catalogs string

	// CatalogDir overrides where the local catalog CSV files live.
	CatalogDir string

	// TAPBaseURL overrides the SIMBAD TAP endpoint, mainly for tests.
	TAPBaseURL string
}

// Annotator ties a host to the catalog registry and persisted settings.
type Annotator struct {
	host     host.Host
	registry *catalog.Registry
	settings *config.Config
}

// New creates an annotator for a host, loading the persisted settings and
// catalog overrides from the host's config directory.
func New(h host.Host) *Annotator {
	reg := catalog.DefaultRegistry()
	dir := h.ConfigDir()
	if err := config.ApplyOverrides(config.OverridesPath(dir), reg); err != nil {
		h.Log("catalog overrides ignored: %v", err)
	}
	return &Annotator{
		host:     h,
		registry: reg,
		settings: config.Load(config.SettingsPath(dir)),
	}
}

// NewWithRegistry creates an annotator with an explicit registry and
// settings, bypassing the persisted files.
func NewWithRegistry(h host.Host, reg *catalog.Registry, settings *config.Config) *Annotator {
	if reg == nil {
		reg = catalog.DefaultRegistry()
	}
	if settings == nil {
		settings = config.Default()
	}
	return &Annotator{host: h, registry: reg, settings: settings}
}

// Registry exposes the catalog registry, e.g. for listing catalogs in a UI.
func (a *Annotator) Registry() *catalog.Registry {
	return a.registry
}

// Settings exposes the loaded settings.
func (a *Annotator) Settings() *config.Config {
	return a.settings
}

// SaveSettings persists the current settings to the host's config
// directory.
func (a *Annotator) SaveSettings() error {
	return a.settings.Save(config.SettingsPath(a.host.ConfigDir()))
}

// Annotate runs one annotation pass and returns the number of annotated
// objects.
func (a *Annotator) Annotate(ctx context.Context, p Params) (int, error) {
	sel := a.selection(p.Catalogs)

	alpha := a.settings.Alpha
	if p.OverlayAlpha > 0 {
		alpha = p.OverlayAlpha
	}
	style := render.Style(a.settings.OverlayType)
	if p.OverlayStyle != "" {
		style = render.Style(p.OverlayStyle)
	}
	logo := a.settings.LogoPath
	if p.LogoPath != "" {
		logo = p.LogoPath
	}

	var client *simbad.Client
	if p.TAPBaseURL != "" {
		client = simbad.NewClient(p.TAPBaseURL)
	}

	d := pipeline.New(a.host, a.registry, client)
	return d.Run(ctx, pipeline.Request{
		OutputStem:   p.OutputStem,
		Title:        p.Title,
		LogoPath:     logo,
		OverlayAlpha: alpha,
		OverlayStyle: style,
		Selection:    sel,
		CatalogDir:   p.CatalogDir,
	})
}

// AnnotateFile is a convenience for the standalone case: it opens the file
// as its own host and runs one annotation pass.
func AnnotateFile(ctx context.Context, path string, p Params) (int, error) {
	h, err := host.OpenFile(path)
	if err != nil {
		return 0, err
	}
	return New(h).Annotate(ctx, p)
}

// selection resolves the catalog selection: an explicit comma list wins,
// then the persisted selection, then the per-catalog defaults.
func (a *Annotator) selection(catalogs string) catalog.Selection {
	if catalogs != "" {
		c := config.Config{Catalogs: catalogs}
		return a.registry.Snapshot(c.SelectedCodes())
	}
	return a.registry.Snapshot(a.settings.SelectedCodes())
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
