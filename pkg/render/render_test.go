package render

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

// planeProjector maps one degree of sky to 100 pixels around (10, 40),
// with pixel y growing with declination.
type planeProjector struct{}

func (planeProjector) PixelToSky(x, y float64) (float64, float64, error) {
	return 10 + (x-300)/100, 40 + (y-200)/100, nil
}

func (planeProjector) SkyToPixel(ra, dec float64) (float64, float64, error) {
	return 300 + (ra-10)*100, 200 + (dec-40)*100, nil
}

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{40, 40, 60, 255})
}

func testRows() []catalog.Row {
	return []catalog.Row{
		{MainID: "M31", Type: "M", PixelX: 300, PixelY: 200, PatchSize: 240, DiameterPix: 180, SortKey: "00"},
		{MainID: "NGC205", Type: "NGC", PixelX: 120, PixelY: 90, PatchSize: 40, DiameterPix: 30, SortKey: "02"},
		{MainID: "LEDA2027", Type: "LEDA", PixelX: 480, PixelY: 310, PatchSize: 6, DiameterPix: 4, SortKey: "07"},
	}
}

func testSelection(t *testing.T) catalog.Selection {
	t.Helper()
	return catalog.DefaultRegistry().Snapshot(nil)
}

func TestGridShape(t *testing.T) {
	cases := []struct {
		n       int
		hasLogo bool
		ncols   int
		nrows   int
	}{
		{13, false, 5, 3},
		{13, true, 6, 3},
		{4, false, 5, 1},
		{49, false, 7, 7},
		{50, false, 7, 8},
		{1, true, 6, 1},
	}
	for _, c := range cases {
		ncols, nrows := GridShape(c.n, c.hasLogo)
		assert.Equal(t, c.ncols, ncols, "ncols for n=%d logo=%v", c.n, c.hasLogo)
		assert.Equal(t, c.nrows, nrows, "nrows for n=%d logo=%v", c.n, c.hasLogo)
	}
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "result.png", CombinedFilename("result"))
	assert.Equal(t, "result_overlay.png", OverlayFilename("result"))
	assert.Equal(t, "result_table.png", TableFilename("result"))

	assert.Equal(t, "result.tiff", CombinedFilename("result.tiff"))
	assert.Equal(t, "result_overlay.tiff", OverlayFilename("result.tiff"))
	assert.Equal(t, "shot_table.webp", TableFilename("shot.webp"))

	// unrecognized extensions stay part of the name
	assert.Equal(t, "photo.raw_overlay.png", OverlayFilename("photo.raw"))
	assert.Equal(t, "a.b.c_table.png", TableFilename("a.b.c"))
}

func TestNewDefaults(t *testing.T) {
	r := New(Options{Alpha: 0, Style: "squiggles"}, testSelection(t), nil)
	assert.InDelta(t, 0.6, r.opts.Alpha, 1e-9)
	assert.Equal(t, StyleCircles, r.opts.Style)

	r = New(Options{Alpha: 0.3, Style: StyleBoxes}, testSelection(t), nil)
	assert.InDelta(t, 0.3, r.opts.Alpha, 1e-9)
	assert.Equal(t, StyleBoxes, r.opts.Style)
}

func TestOverlayDimensions(t *testing.T) {
	sel := testSelection(t)
	img := testImage(600, 400)

	r := New(Options{Title: "M 31", Alpha: 0.6, Style: StyleCircles, MinPatch: 6}, sel, planeProjector{})
	out, err := r.Overlay(img, testRows())
	require.NoError(t, err)
	assert.Equal(t, 600, out.Bounds().Dx())
	assert.Equal(t, 400+titleBand, out.Bounds().Dy())

	// without a title there is no band
	r = New(Options{Alpha: 0.6, Style: StyleBoxes, MinPatch: 6}, sel, nil)
	out, err = r.Overlay(img, testRows())
	require.NoError(t, err)
	assert.Equal(t, 400, out.Bounds().Dy())
}

func TestThumbnailGridDimensions(t *testing.T) {
	sel := testSelection(t)
	r := New(Options{Alpha: 0.6, MinPatch: 6}, sel, nil)
	out, err := r.ThumbnailGrid(testImage(600, 400), testRows())
	require.NoError(t, err)

	ncols, nrows := GridShape(3, false)
	assert.Equal(t, ncols*thumbSize, out.Bounds().Dx())
	assert.Equal(t, nrows*(thumbSize+captionBand), out.Bounds().Dy())
}

func TestThumbnailGridEmpty(t *testing.T) {
	r := New(Options{Alpha: 0.6}, testSelection(t), nil)
	out, err := r.ThumbnailGrid(testImage(100, 100), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Bounds().Dy())
}

func TestCompositeStacks(t *testing.T) {
	r := New(Options{Alpha: 0.6}, testSelection(t), nil)
	overlay := testImage(600, 456)
	grid := testImage(1200, 800)

	out := r.Composite(overlay, grid)
	assert.Equal(t, 600, out.Bounds().Dx())
	// grid halves in width, so its height halves as well
	assert.Equal(t, 456+400, out.Bounds().Dy())
}

func TestSaveImageByExtension(t *testing.T) {
	dir := t.TempDir()
	img := testImage(16, 16)

	for _, name := range []string{"out.png", "out.jpg", "out.webp", "out.tiff"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveImage(img, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), name)
	}

	err := SaveImage(img, filepath.Join(dir, "out.xyz"))
	assert.Error(t, err)
}

func TestColorForFallback(t *testing.T) {
	r := New(Options{Alpha: 0.6}, testSelection(t), nil)

	c := r.colorFor("NoSuchCatalog")
	assert.InDelta(t, 1.0, c.R, 1e-9)
	assert.InDelta(t, 0.0, c.G, 1e-9)
	assert.InDelta(t, 0.0, c.B, 1e-9)
}

func TestFontSizeFor(t *testing.T) {
	assert.Equal(t, 20.0, fontSizeFor("LEDA", true))
	assert.Equal(t, 18.0, fontSizeFor("M", false))
	assert.Equal(t, 16.0, fontSizeFor("UGC", false))
	assert.Equal(t, 12.0, fontSizeFor("LEDA", false))
}

func TestLabelPosition(t *testing.T) {
	// plenty of headroom keeps the label above the shape
	y, above := labelPosition(200, 20, 0, 400, 12)
	assert.True(t, above)
	assert.InDelta(t, 174, y, 1e-9)

	// near the top edge the label flips below
	y, above = labelPosition(10, 20, 0, 400, 12)
	assert.False(t, above)
	assert.InDelta(t, 36, y, 1e-9)
}

func TestNiceStep(t *testing.T) {
	assert.InDelta(t, 0.2, niceStep(0.17), 1e-12)
	assert.InDelta(t, 0.5, niceStep(0.31), 1e-12)
	assert.InDelta(t, 1.0, niceStep(0.9), 1e-12)
	assert.InDelta(t, 5.0, niceStep(3.3), 1e-12)
	assert.InDelta(t, 1.0, niceStep(math.NaN()), 1e-12)
}
