package render

import (
	"path/filepath"
	"strings"
)

// savableExts are the extensions the image encoders accept. Any other
// extension on the output stem is treated as part of the name and the
// result falls back to PNG.
var savableExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// OutputFilename derives an output path from the user-supplied stem and a
// suffix such as "_overlay". A recognized extension is preserved; a stem
// without one, or with an unrecognized one, gets ".png".
func OutputFilename(stem, suffix string) string {
	ext := strings.ToLower(filepath.Ext(stem))
	if savableExts[ext] {
		base := stem[:len(stem)-len(ext)]
		return base + suffix + stem[len(stem)-len(ext):]
	}
	return stem + suffix + ".png"
}

// CombinedFilename names the stacked overlay-plus-grid image.
func CombinedFilename(stem string) string { return OutputFilename(stem, "") }

// OverlayFilename names the standalone annotated image.
func OverlayFilename(stem string) string { return OutputFilename(stem, "_overlay") }

// TableFilename names the standalone thumbnail grid.
func TableFilename(stem string) string { return OutputFilename(stem, "_table") }
