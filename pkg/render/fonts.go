package render

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font

	faceMu sync.Mutex
	faces  = map[float64]font.Face{}
)

// fontFace returns a cached Go Regular face at the given point size.
func fontFace(size float64) font.Face {
	fontOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			// goregular is embedded and known-good; this cannot happen
			// outside a corrupted build.
			panic(err)
		}
		fontTTF = f
	})
	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[size]; ok {
		return f
	}
	f := truetype.NewFace(fontTTF, &truetype.Options{Size: size})
	faces[size] = f
	return f
}
