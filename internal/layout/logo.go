package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// logoImage is a decoded logo re-encoded as 8 bit PNG
type logoImage struct {
	data   []byte
	width  int
	height int
	format string
}

// loadLogo decodes any supported raster format, downscales images larger
// than maxPixels on either side and re-encodes them as PNG.
func loadLogo(path string, maxPixels int) (*logoImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", path, err)
	}

	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("logo %s has no pixels", path)
	}

	w, h := scaledSize(b.Dx(), b.Dy(), maxPixels)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}

	return &logoImage{data: buf.Bytes(), width: w, height: h, format: format}, nil
}

func scaledSize(w, h, maxPixels int) (int, int) {
	if maxPixels <= 0 || (w <= maxPixels && h <= maxPixels) {
		return w, h
	}
	if w >= h {
		return maxPixels, max(1, h*maxPixels/w)
	}
	return max(1, w*maxPixels/h), maxPixels
}

// fitBox scales a w×h pixel image into the box preserving aspect ratio
func fitBox(w, h int, boxW, boxH float64) (float64, float64) {
	scale := min(boxW/float64(w), boxH/float64(h))
	return float64(w) * scale, float64(h) * scale
}
