// Package catalog holds the object-catalog registry and the row shape every
// catalog source normalizes into. The registry is an ordered list of
// immutable definitions; per-run selection and color state is taken as a
// Selection snapshot so the pipeline never reads shared mutable state.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// TypeUnknown is the tokenizer result for identifiers without a leading
// alphanumeric run.
const TypeUnknown = "Unknown"

// Row is one astronomical object candidate, in the shape shared by the
// local loaders and the remote query client.
type Row struct {
	MainID string
	RA     float64 // degrees, [0,360)
	Dec    float64 // degrees, [-90,90]
	Type   string  // catalog code, e.g. "M", "NGC", "LEDA"

	// AngularMajorAxis is the object's largest angular extent in
	// arcminutes. NaN when the catalog carries no size.
	AngularMajorAxis float64

	// Derived during a pipeline run.
	PixelX, PixelY float64
	PatchSize      int
	DiameterPix    float64
	SortKey        string
}

// HasSize reports whether the row carries an angular size.
func (r *Row) HasSize() bool {
	return !math.IsNaN(r.AngularMajorAxis)
}

// Definition is the static configuration of one catalog.
type Definition struct {
	Code              string `yaml:"code"`
	DisplayName       string `yaml:"name"`
	Color             string `yaml:"color"` // hex, e.g. "#80ff80"
	SelectedByDefault bool   `yaml:"selected"`

	// Local catalogs are file-backed CSV tables shipped with the host;
	// everything else is resolved through the remote region query.
	Local    bool   `yaml:"-"`
	FileName string `yaml:"-"` // CSV file name for local catalogs
}

// Registry is an ordered set of catalog definitions. Order matters: it
// drives the sort keys that decide annotation numbering.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// DefaultRegistry returns the built-in catalog table. The first three are
// local CSV catalogs; the rest are matched against remote query results by
// identifier prefix.
func DefaultRegistry() *Registry {
	return NewRegistry([]Definition{
		{Code: "M", DisplayName: "Messier Catalog", Color: "#80ff80", SelectedByDefault: true, Local: true, FileName: "messier.csv"},
		{Code: "IC", DisplayName: "Index Catalogue", Color: "#80ffff", SelectedByDefault: true, Local: true, FileName: "ic.csv"},
		{Code: "NGC", DisplayName: "New General Catalogue", Color: "#ffffff", SelectedByDefault: true, Local: true, FileName: "ngc.csv"},
		{Code: "MGC", DisplayName: "Millennium Galaxy Catalogue", Color: "#30a500"},
		{Code: "UGC", DisplayName: "Uppsala General Catalogue", Color: "#3abed1"},
		{Code: "MCG", DisplayName: "Morphological Catalogue of Galaxies", Color: "#955ec2"},
		{Code: "Mrk", DisplayName: "Markarian galaxies", Color: "#fbbd70"},
		{Code: "LEDA", DisplayName: "Lyon-Meudon Extragalactic Database", Color: "#c29d94"},
		{Code: "Z", DisplayName: "Zwicky Catalogue of galaxies and of clusters of galaxies", Color: "#fb9795"},
		{Code: "Gaia", DisplayName: "Gaia catalogues", Color: "#c6aed8"},
		{Code: "2MASX", DisplayName: "Two Micron All Sky Survey, Extended source catalogue", Color: "#895447"},
		{Code: "SDSS", DisplayName: "Sloan Digital Sky Survey", Color: "#b2c5eb"},
		{Code: "SDSSCGB", DisplayName: "SDSS DR6 Compact Group Catalogue B", Color: "#b2c5eb"},
		{Code: "UGCA", DisplayName: "Uppsala Selected non-UGC Galaxies", Color: "#f5b3d3"},
		{Code: "MASS", DisplayName: "", Color: "#c8c8c8"},
		{Code: "MFGC", DisplayName: "", Color: "#b9c200"},
		{Code: "2MFGC", DisplayName: "2MASS Flat Galaxy Catalog", Color: "#d9df85"},
		{Code: "FIRST", DisplayName: "FIRST Survey Catalogs", Color: "#a3dae7"},
		{Code: "2MASS", DisplayName: "Two Micron All Sky Survey", Color: "#895447"},
	})
}

// NewRegistry builds a registry from an ordered definition list.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{defs: defs, index: make(map[string]int, len(defs))}
	for i, d := range defs {
		r.index[d.Code] = i
	}
	return r
}

// Definitions returns the definitions in registry order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// LocalDefinitions returns only the file-backed catalogs, in order.
func (r *Registry) LocalDefinitions() []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Local {
			out = append(out, d)
		}
	}
	return out
}

// LocalCodes returns the codes of the file-backed catalogs.
func (r *Registry) LocalCodes() []string {
	var out []string
	for _, d := range r.defs {
		if d.Local {
			out = append(out, d.Code)
		}
	}
	return out
}

// Lookup returns the definition for a catalog code.
func (r *Registry) Lookup(code string) (Definition, bool) {
	i, ok := r.index[code]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// SortKey returns a two-digit zero-padded key from the catalog's position
// in registry order, so annotations number local catalogs first. Unknown
// codes sort last; they are filtered out before rendering anyway.
func (r *Registry) SortKey(code string) string {
	i, ok := r.index[code]
	if !ok {
		return "99"
	}
	return fmt.Sprintf("%02d", i)
}

// Override adjusts one catalog definition in place. Unknown codes are
// ignored.
func (r *Registry) Override(code string, color string, selected *bool) {
	i, ok := r.index[code]
	if !ok {
		return
	}
	if color != "" {
		r.defs[i].Color = color
	}
	if selected != nil {
		r.defs[i].SelectedByDefault = *selected
	}
}

// Selection is an immutable snapshot of which catalogs are enabled and
// which color each uses, taken at run start.
type Selection struct {
	codes  []string
	colors map[string]string
}

// Snapshot captures the current selection state. When enabled is nil the
// per-definition defaults apply; otherwise enabled fully determines the
// selected set.
func (r *Registry) Snapshot(enabled map[string]bool) Selection {
	s := Selection{colors: make(map[string]string, len(r.defs))}
	for _, d := range r.defs {
		on := d.SelectedByDefault
		if enabled != nil {
			on = enabled[d.Code]
		}
		if on {
			s.codes = append(s.codes, d.Code)
		}
		s.colors[d.Code] = d.Color
	}
	return s
}

// Enabled reports whether a catalog code is part of the snapshot.
func (s Selection) Enabled(code string) bool {
	for _, c := range s.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Codes returns the enabled catalog codes in registry order.
func (s Selection) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Color returns the snapshot color for a catalog code, falling back to red
// for codes outside the registry.
func (s Selection) Color(code string) string {
	if c, ok := s.colors[code]; ok && c != "" {
		return c
	}
	return "#ff0000"
}

// String serializes the enabled codes as a comma list, the form used in the
// persisted config file.
func (s Selection) String() string {
	return strings.Join(s.codes, ",")
}

// TypeFromID derives a catalog code from an object identifier by taking the
// leading run of ASCII letters and digits. Precedence is purely positional:
// the run ends at the first character that is neither. Identifiers that do
// not start with a letter or digit map to TypeUnknown.
//
//	"NGC 224"      -> "NGC"
//	"2MASX J0042"  -> "2MASX"
//	"[B2006] 12"   -> "Unknown"
func TypeFromID(id string) string {
	id = strings.TrimSpace(id)
	n := 0
	for n < len(id) {
		c := id[n]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	if n == 0 {
		return TypeUnknown
	}
	return id[:n]
}

// SortRows orders rows ascending by (SortKey, MainID). The identifier
// tie-break keeps the ordering deterministic across runs.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SortKey != rows[j].SortKey {
			return rows[i].SortKey < rows[j].SortKey
		}
		return rows[i].MainID < rows[j].MainID
	})
}
