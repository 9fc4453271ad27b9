package render

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
	"github.com/gonkane/galaxy-annotate/pkg/wcs"
)

// titleBand is the extra canvas height above the image for the run title.
const titleBand = 56

// longLabelPatchSize is the patch size above which the label carries the
// object identifier in addition to its index.
const longLabelPatchSize = 200

// Overlay renders the annotated image: the source image with a sky
// coordinate grid, one shape and one numbered label per row in aggregator
// order, and the title band on top.
func (r *Renderer) Overlay(img image.Image, rows []catalog.Row) (image.Image, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	band := 0
	if r.opts.Title != "" {
		band = titleBand
	}

	dc := gg.NewContext(w, h+band)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.DrawImage(img, 0, band)

	if r.proj != nil {
		r.drawSkyGrid(dc, w, h, band)
	}

	if r.opts.Title != "" {
		dc.SetFontFace(fontFace(28))
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(r.opts.Title, float64(w)/2, float64(band)/2, 0.5, 0.5)
	}

	// row identifiers have spaces stripped; match the title the same way
	mainObject := strings.ReplaceAll(r.opts.Title, " ", "")
	alpha := r.opts.Alpha
	for i, row := range rows {
		isMain := mainObject != "" && row.MainID == mainObject
		col := r.colorFor(row.Type)
		if isMain {
			col.R, col.G, col.B = 1, 1, 1
		}
		fontSize := fontSizeFor(row.Type, isMain)

		px := row.PixelX
		iy := float64(band) + float64(h) - row.PixelY // pixel y grows upward, canvas y down

		label := strconv.Itoa(i + 1)
		if row.PatchSize > longLabelPatchSize {
			label = fmt.Sprintf("%d: %s", i+1, row.MainID)
		}

		dc.SetRGBA(col.R, col.G, col.B, alpha)
		dc.SetLineWidth(1)

		var textY float64
		var above bool
		if r.opts.Style == StyleBoxes {
			half := float64(row.PatchSize) / 2
			dc.DrawRectangle(px-half, iy-half, 2*half, 2*half)
			dc.Stroke()
			textY, above = labelPosition(iy, half, float64(band), float64(h), fontSize)
		} else {
			radius := math.Max(float64(r.opts.MinPatch), 1.2*row.DiameterPix/2)
			dc.DrawCircle(px, iy, radius)
			dc.Stroke()
			textY, above = labelPosition(iy, radius, float64(band), float64(h), fontSize)
		}

		dc.SetFontFace(fontFace(fontSize))
		dc.SetRGBA(col.R, col.G, col.B, alpha)
		if above {
			dc.DrawStringAnchored(label, px, textY, 0.5, 1)
		} else {
			dc.DrawStringAnchored(label, px, textY, 0.5, 0)
		}
	}

	r.drawAxisLabels(dc, w, h, band)
	return dc.Image(), nil
}

// labelPosition places a label above the shape, flipping below when the
// above position would leave the image.
func labelPosition(iy, extent, top, height, fontSize float64) (textY float64, above bool) {
	textY = iy - 6 - extent
	if textY-fontSize < top {
		below := iy + 6 + extent
		limit := top + height - 3*fontSize
		if below > limit {
			below = limit
		}
		return below, false
	}
	return textY, true
}

// drawAxisLabels writes the coordinate axis names inside the image edges.
func (r *Renderer) drawAxisLabels(dc *gg.Context, w, h, band int) {
	dc.SetFontFace(fontFace(14))
	dc.SetRGBA(1, 1, 1, r.opts.Alpha)
	dc.DrawStringAnchored("Right Ascension (J2000)", float64(w)/2, float64(band+h)-8, 0.5, 0)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 16, float64(band)+float64(h)/2)
	dc.DrawStringAnchored("Declination (J2000)", 16, float64(band)+float64(h)/2, 0.5, 0.5)
	dc.Pop()
}

// drawSkyGrid draws dotted iso-RA and iso-Dec lines across the image.
func (r *Renderer) drawSkyGrid(dc *gg.Context, w, h, band int) {
	raMin, raMax, decMin, decMax, ok := r.skyBounds(w, h)
	if !ok {
		return
	}

	dc.SetRGBA(1, 1, 1, r.opts.Alpha)
	dc.SetLineWidth(0.75)
	dc.SetDash(1, 4)
	defer dc.SetDash()

	const samples = 96
	raStep := niceStep((raMax - raMin) / 5)
	for ra := math.Ceil(raMin/raStep) * raStep; ra <= raMax; ra += raStep {
		r.strokeSkyLine(dc, w, h, band, samples, func(t float64) (float64, float64) {
			return ra, decMin + t*(decMax-decMin)
		})
	}
	decStep := niceStep((decMax - decMin) / 5)
	for dec := math.Ceil(decMin/decStep) * decStep; dec <= decMax; dec += decStep {
		r.strokeSkyLine(dc, w, h, band, samples, func(t float64) (float64, float64) {
			return raMin + t*(raMax-raMin), dec
		})
	}
}

// strokeSkyLine samples a parameterized sky path and strokes the segments
// whose projections land on the canvas.
func (r *Renderer) strokeSkyLine(dc *gg.Context, w, h, band, samples int, at func(t float64) (ra, dec float64)) {
	var prevX, prevY float64
	prevOK := false
	for i := 0; i <= samples; i++ {
		ra, dec := at(float64(i) / float64(samples))
		x, y, ok := wcs.SafeSkyToPixel(r.proj, ra, dec)
		if ok {
			cy := float64(band) + float64(h) - y
			inside := x >= 0 && x <= float64(w) && cy >= float64(band) && cy <= float64(band+h)
			if prevOK && inside {
				dc.DrawLine(prevX, prevY, x, cy)
				dc.Stroke()
			}
			prevX, prevY, prevOK = x, cy, inside
		} else {
			prevOK = false
		}
	}
}

// skyBounds projects the four image corners to bracket the visible sky.
func (r *Renderer) skyBounds(w, h int) (raMin, raMax, decMin, decMax float64, ok bool) {
	raMin, decMin = math.Inf(1), math.Inf(1)
	raMax, decMax = math.Inf(-1), math.Inf(-1)
	for _, pt := range [][2]float64{{0, 0}, {float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}} {
		ra, dec, err := r.proj.PixelToSky(pt[0], pt[1])
		if err != nil || math.IsNaN(ra) || math.IsNaN(dec) {
			return 0, 0, 0, 0, false
		}
		raMin = math.Min(raMin, ra)
		raMax = math.Max(raMax, ra)
		decMin = math.Min(decMin, dec)
		decMax = math.Max(decMax, dec)
	}
	return raMin, raMax, decMin, decMax, raMax > raMin && decMax > decMin
}

// niceStep rounds a raw interval up to a 1/2/5 × 10^k value.
func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag <= 1:
		return mag
	case raw/mag <= 2:
		return 2 * mag
	case raw/mag <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}
