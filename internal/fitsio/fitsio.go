// Package fitsio provides the minimal FITS access the standalone CLI needs:
// header cards for the WCS solution and the primary HDU pixel data,
// normalized into a displayable image. It is not a general FITS library;
// only the layouts produced by common plate-solving stacks are supported
// (BITPIX 8/16/-32, up to three image planes).
package fitsio

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// File is a decoded FITS primary HDU.
type File struct {
	cards map[string]string

	Width    int
	Height   int
	Channels int

	// Data holds normalized samples in [0,1], channel-planar, row-major
	// with row 0 at the bottom per FITS convention.
	Data []float32
}

// Open reads and decodes a FITS file from disk.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fits: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a FITS primary HDU from r.
func Decode(r io.Reader) (*File, error) {
	f := &File{cards: make(map[string]string)}
	if err := f.readHeader(r); err != nil {
		return nil, err
	}
	if err := f.readData(r); err != nil {
		return nil, err
	}
	return f, nil
}

// Card returns the raw value of a header card.
func (f *File) Card(key string) (string, bool) {
	v, ok := f.cards[key]
	return v, ok
}

// Float returns a header card parsed as float64. Satisfies wcs.HeaderValues.
func (f *File) Float(key string) (float64, bool) {
	raw, ok := f.cards[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (f *File) readHeader(r io.Reader) error {
	block := make([]byte, blockSize)
	done := false
	for !done {
		if _, err := io.ReadFull(r, block); err != nil {
			return fmt.Errorf("fits: short header: %w", err)
		}
		for i := 0; i+cardSize <= blockSize; i += cardSize {
			card := string(block[i : i+cardSize])
			key := strings.TrimSpace(card[:8])
			if key == "END" {
				done = true
				break
			}
			if key == "" || key == "COMMENT" || key == "HISTORY" {
				continue
			}
			if len(card) < 10 || card[8] != '=' {
				continue
			}
			value := card[10:]
			if idx := valueEnd(value); idx >= 0 {
				value = value[:idx]
			}
			value = strings.TrimSpace(value)
			if len(value) >= 2 && value[0] == '\'' {
				value = strings.TrimSpace(strings.Trim(value, "'"))
			}
			f.cards[key] = value
		}
	}
	return nil
}

// valueEnd finds the start of an inline comment, ignoring slashes inside
// quoted string values.
func valueEnd(v string) int {
	inString := false
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\'':
			inString = !inString
		case '/':
			if !inString {
				return i
			}
		}
	}
	return -1
}

func (f *File) readData(r io.Reader) error {
	bitpix, ok := f.Float("BITPIX")
	if !ok {
		return fmt.Errorf("fits: header has no BITPIX")
	}
	naxis, ok := f.Float("NAXIS")
	if !ok || naxis < 2 {
		return fmt.Errorf("fits: not a 2D image (NAXIS=%v)", naxis)
	}
	w, _ := f.Float("NAXIS1")
	h, _ := f.Float("NAXIS2")
	f.Width = int(w)
	f.Height = int(h)
	f.Channels = 1
	if naxis >= 3 {
		c, _ := f.Float("NAXIS3")
		f.Channels = int(c)
	}
	if f.Width <= 0 || f.Height <= 0 || (f.Channels != 1 && f.Channels != 3) {
		return fmt.Errorf("fits: unsupported geometry %dx%dx%d", f.Width, f.Height, f.Channels)
	}

	bzero := 0.0
	if v, ok := f.Float("BZERO"); ok {
		bzero = v
	}
	bscale := 1.0
	if v, ok := f.Float("BSCALE"); ok {
		bscale = v
	}

	n := f.Width * f.Height * f.Channels
	raw := make([]float32, n)

	switch int(bitpix) {
	case 8:
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("fits: short data: %w", err)
		}
		for i, b := range buf {
			raw[i] = float32(bzero + bscale*float64(b))
		}
		normalizeInt(raw, 255)
	case 16:
		buf := make([]byte, 2*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("fits: short data: %w", err)
		}
		for i := 0; i < n; i++ {
			v := int16(binary.BigEndian.Uint16(buf[2*i:]))
			raw[i] = float32(bzero + bscale*float64(v))
		}
		normalizeInt(raw, 65535)
	case -32:
		buf := make([]byte, 4*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("fits: short data: %w", err)
		}
		for i := 0; i < n; i++ {
			bits := binary.BigEndian.Uint32(buf[4*i:])
			raw[i] = float32(bzero + bscale*float64(math.Float32frombits(bits)))
		}
		normalizeFloat(raw)
	default:
		return fmt.Errorf("fits: unsupported BITPIX %d", int(bitpix))
	}

	clamp01(raw)
	f.Data = raw
	return nil
}

// normalizeInt rescales integer-typed data to [0,1] by its full range.
func normalizeInt(data []float32, full float32) {
	for i := range data {
		data[i] /= full
	}
}

// normalizeFloat rescales float data by its maximum when values exceed 1
// or when everything sits in the bottom of the 16-bit range (a common
// artifact of float conversions of 8-bit data).
func normalizeFloat(data []float32) {
	maxV := float32(0)
	for _, v := range data {
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= 0 {
		return
	}
	if maxV <= 255.0/65535.0 || maxV > 1.0 {
		for i := range data {
			data[i] /= maxV
		}
	}
}

func clamp01(data []float32) {
	for i := range data {
		if data[i] < 0 {
			data[i] = 0
		} else if data[i] > 1 {
			data[i] = 1
		}
	}
}

// Image converts the normalized data to an 8-bit RGB image in display
// orientation (row 0 at the top). Mono data is expanded to three channels.
func (f *File) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	plane := f.Width * f.Height
	for y := 0; y < f.Height; y++ {
		srcRow := f.Height - 1 - y // FITS rows grow upward
		for x := 0; x < f.Width; x++ {
			i := srcRow*f.Width + x
			var r, g, b float32
			if f.Channels == 3 {
				r, g, b = f.Data[i], f.Data[plane+i], f.Data[2*plane+i]
			} else {
				r = f.Data[i]
				g, b = r, r
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(r*255 + 0.5),
				G: uint8(g*255 + 0.5),
				B: uint8(b*255 + 0.5),
				A: 255,
			})
		}
	}
	return img
}

// Stretch applies a percentile clip to the normalized data, mapping the
// [low, high] quantiles onto [0,1]. Useful for making faint raster exports
// visible; a no-op when the quantiles collapse.
func (f *File) Stretch(low, high float64) {
	sample := make([]float64, 0, len(f.Data))
	for i := 0; i < len(f.Data); i += 7 { // coarse subsample, plenty for quantiles
		sample = append(sample, float64(f.Data[i]))
	}
	if len(sample) < 2 {
		return
	}
	sort.Float64s(sample)
	lo := stat.Quantile(low, stat.Empirical, sample, nil)
	hi := stat.Quantile(high, stat.Empirical, sample, nil)
	if hi-lo <= 0 {
		return
	}
	for i, v := range f.Data {
		f.Data[i] = float32((float64(v) - lo) / (hi - lo))
	}
	clamp01(f.Data)
}
