// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package imaging implements loading and pure geometry operations on
// RGBA bitmaps used for icon generation.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// RasterSize is the resolution at which vector sources are rasterized
// before any further processing.
const RasterSize = 1024

// Load reads an image from path and returns it as an RGBA bitmap along
// with a flag reporting whether the source was a vector image. Vector
// sources (detected by the .svg extension) are rasterized at a fixed
// RasterSize square resolution; raster sources are decoded natively and
// converted to RGBA, gaining a fully opaque alpha channel if they had
// none.
func Load(path string) (*image.RGBA, bool, error) {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		f, err := os.Open(path)
		if err != nil {
			return nil, false, err
		}
		defer f.Close()
		img, err := Rasterize(f, RasterSize, RasterSize)
		if err != nil {
			return nil, false, fmt.Errorf("rasterizing %s: %w", path, err)
		}
		return img, true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return toRGBA(src), false, nil
}

// Rasterize renders SVG markup read from r into a w×h RGBA bitmap.
func Rasterize(r io.Reader, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)
	return dst
}

// Resize stretches src to exactly w×h using Catmull-Rom resampling.
// Aspect ratio is not preserved.
func Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Contain resizes src to fit entirely within a w×h box, preserving
// aspect ratio. Resulting dimensions are rounded to the nearest integer
// and are at least 1px per axis.
func Contain(src image.Image, w, h int) *image.RGBA {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	scale := math.Min(float64(w)/float64(sw), float64(h)/float64(sh))
	nw := max(1, int(math.Round(float64(sw)*scale)))
	nh := max(1, int(math.Round(float64(sh)*scale)))
	return Resize(src, nw, nh)
}

// Center returns the top-left offset at which an inner box should be
// placed to be centered within an outer box.
func Center(inner, outer image.Point) image.Point {
	return image.Pt((outer.X-inner.X)/2, (outer.Y-inner.Y)/2)
}

// TrimAlpha crops src to the bounding box of its non-transparent
// pixels. A fully transparent image is returned unchanged. Applying
// TrimAlpha twice yields the same result as applying it once.
func TrimAlpha(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.RGBAAt(x, y).A == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x+1)
			maxY = max(maxY, y+1)
		}
	}
	if minX >= maxX || minY >= maxY {
		return src
	}
	bbox := image.Rect(minX, minY, maxX, maxY)
	if bbox == b {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	draw.Copy(dst, image.Point{}, src, bbox, draw.Src, nil)
	return dst
}

// ParseHexColor parses a #rgb or #rrggbb CSS color into an opaque
// color.
func ParseHexColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	hexDigit := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	if !strings.HasPrefix(s, "#") {
		return c, fmt.Errorf("invalid color %q: must start with #", s)
	}
	digits := s[1:]
	switch len(digits) {
	case 3:
		for i, p := range []*uint8{&c.R, &c.G, &c.B} {
			d, ok := hexDigit(digits[i])
			if !ok {
				return c, fmt.Errorf("invalid color %q", s)
			}
			*p = d<<4 | d
		}
	case 6:
		for i, p := range []*uint8{&c.R, &c.G, &c.B} {
			hi, ok1 := hexDigit(digits[i*2])
			lo, ok2 := hexDigit(digits[i*2+1])
			if !ok1 || !ok2 {
				return c, fmt.Errorf("invalid color %q", s)
			}
			*p = hi<<4 | lo
		}
	default:
		return c, fmt.Errorf("invalid color %q: want #rgb or #rrggbb", s)
	}
	return c, nil
}
