package render

import (
	"image"
	"log"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

const (
	// thumbSize is the fixed square resolution each patch is resized to.
	thumbSize = 512
	// captionBand is the per-cell strip above the thumbnail for the
	// object identifier.
	captionBand = 44
	// gridMinColumns is the column floor without a logo; a supplied logo
	// raises it by one so a trailing cell tends to stay free.
	gridMinColumns = 5
)

// GridShape returns the thumbnail grid dimensions for n objects.
func GridShape(n int, hasLogo bool) (ncols, nrows int) {
	minCols := gridMinColumns
	if hasLogo {
		minCols++
	}
	ncols = minCols
	if c := int(math.Floor(math.Sqrt(float64(n)))); c > ncols {
		ncols = c
	}
	nrows = (n + ncols - 1) / ncols
	return ncols, nrows
}

// ThumbnailGrid renders the table of square patch crops, one per row, in
// the same order as the overlay numbering. Unused trailing cells stay
// blank; the logo, when supplied and a cell is free, fills the last cell.
func (r *Renderer) ThumbnailGrid(img image.Image, rows []catalog.Row) (image.Image, error) {
	h := img.Bounds().Dy()
	n := len(rows)
	hasLogo := r.opts.LogoPath != ""
	ncols, nrows := GridShape(n, hasLogo)

	cellW := thumbSize
	cellH := thumbSize + captionBand
	dc := gg.NewContext(ncols*cellW, nrows*cellH)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	for i, row := range rows {
		cellX := (i % ncols) * cellW
		cellY := (i / ncols) * cellH

		thumb := r.patchThumbnail(img, row, h)
		dc.DrawImage(thumb, cellX, cellY+captionBand)

		col := r.colorFor(row.Type)

		// colored frame ties the cell back to its catalog
		dc.SetRGB(col.R, col.G, col.B)
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(cellX)+1, float64(cellY+captionBand)+1, float64(thumbSize)-2, float64(thumbSize)-2)
		dc.Stroke()

		dc.SetFontFace(fontFace(16))
		dc.DrawStringAnchored(row.MainID, float64(cellX)+float64(cellW)/2, float64(cellY)+float64(captionBand)/2, 0.5, 0.5)

		dc.SetFontFace(fontFace(22))
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(strconv.Itoa(i+1), float64(cellX)+8, float64(cellY+captionBand)+8, 0, 1)
	}

	if hasLogo && ncols*nrows > n {
		logo, err := loadLogo(r.opts.LogoPath)
		if err != nil {
			// a bad logo should not cost the run; the cell stays blank
			log.Printf("logo load failed: %v", err)
		} else {
			fitted := imaging.Fit(logo, thumbSize, thumbSize, imaging.Lanczos)
			cellX := (ncols - 1) * cellW
			cellY := (nrows - 1) * cellH
			ox := (thumbSize - fitted.Bounds().Dx()) / 2
			oy := (thumbSize - fitted.Bounds().Dy()) / 2
			dc.DrawImage(fitted, cellX+ox, cellY+captionBand+oy)
		}
	}

	return dc.Image(), nil
}

// patchThumbnail crops the square patch region around the object's pixel
// position and resizes it to the fixed thumbnail resolution.
func (r *Renderer) patchThumbnail(img image.Image, row catalog.Row, imgHeight int) image.Image {
	cx := int(math.Round(row.PixelX))
	cy := imgHeight - int(math.Round(row.PixelY))
	half := row.PatchSize / 2
	if half < 1 {
		half = r.opts.MinPatch / 2
		if half < 1 {
			half = 1
		}
	}
	rect := image.Rect(cx-half, cy-half, cx+half, cy+half).Intersect(img.Bounds())
	if rect.Empty() {
		rect = img.Bounds()
	}
	cropped := imaging.Crop(img, rect)
	return imaging.Resize(cropped, thumbSize, thumbSize, imaging.Lanczos)
}
