// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.astrophena.name/base/testutil"
)

func TestContain(t *testing.T) {
	cases := map[string]struct {
		srcW, srcH int
		boxW, boxH int
		wantW      int
		wantH      int
	}{
		"landscape into square": {100, 50, 64, 64, 64, 32},
		"portrait into square":  {50, 100, 64, 64, 32, 64},
		"square into square":    {512, 512, 180, 180, 180, 180},
		"upscale to fit":        {10, 10, 100, 100, 100, 100},
		"narrow box":            {10, 10, 3, 7, 3, 3},
		"extreme ratio min 1px": {1000, 1, 10, 10, 10, 1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tc.srcW, tc.srcH))
			got := Contain(src, tc.boxW, tc.boxH)
			testutil.AssertEqual(t, got.Bounds().Dx(), tc.wantW)
			testutil.AssertEqual(t, got.Bounds().Dy(), tc.wantH)
			if got.Bounds().Dx() > tc.boxW || got.Bounds().Dy() > tc.boxH {
				t.Fatalf("result %v exceeds box %dx%d", got.Bounds(), tc.boxW, tc.boxH)
			}
		})
	}
}

func TestCenter(t *testing.T) {
	cases := map[string]struct {
		inner, outer image.Point
		want         image.Point
	}{
		"exact fit":  {image.Pt(180, 180), image.Pt(180, 180), image.Pt(0, 0)},
		"even gap":   {image.Pt(100, 50), image.Pt(180, 180), image.Pt(40, 65)},
		"odd gap":    {image.Pt(3, 3), image.Pt(10, 10), image.Pt(3, 3)},
		"one pixel":  {image.Pt(1, 1), image.Pt(2, 2), image.Pt(0, 0)},
		"tall inner": {image.Pt(10, 100), image.Pt(100, 100), image.Pt(45, 0)},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, Center(tc.inner, tc.outer), tc.want)
		})
	}
}

func TestTrimAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 3; y < 8; y++ {
		for x := 2; x < 5; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}

	got := TrimAlpha(src)
	testutil.AssertEqual(t, got.Bounds().Dx(), 3)
	testutil.AssertEqual(t, got.Bounds().Dy(), 5)

	// Trimming is idempotent.
	again := TrimAlpha(got)
	testutil.AssertEqual(t, again.Bounds(), got.Bounds())
	testutil.AssertEqual(t, again.Pix, got.Pix)
}

func TestTrimAlphaFullyTransparent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	got := TrimAlpha(src)
	if got != src {
		t.Fatal("fully transparent image must be returned unchanged")
	}
}

func TestTrimAlphaOpaque(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			src.SetRGBA(x, y, color.RGBA{B: 0xff, A: 0xff})
		}
	}
	got := TrimAlpha(src)
	if got != src {
		t.Fatal("image without transparent margins must be returned unchanged")
	}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		"short white":   {in: "#fff", want: color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		"long white":    {in: "#ffffff", want: color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		"safari pinned": {in: "#5bbad5", want: color.NRGBA{0x5b, 0xba, 0xd5, 0xff}},
		"uppercase":     {in: "#FF00AA", want: color.NRGBA{0xff, 0x00, 0xaa, 0xff}},
		"no hash":       {in: "ffffff", wantErr: true},
		"bad digit":     {in: "#ggg", wantErr: true},
		"wrong length":  {in: "#ffff", wantErr: true},
		"empty":         {in: "", wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseHexColor(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseHexColor(%q): expected error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestLoadRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	src := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := range 16 {
		for x := range 32 {
			src.SetNRGBA(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	writePNG(t, path, src)

	img, isVector, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isVector, false)
	testutil.AssertEqual(t, img.Bounds().Dx(), 32)
	testutil.AssertEqual(t, img.Bounds().Dy(), 16)
	testutil.AssertEqual(t, img.RGBAAt(10, 10).A, uint8(0xff))
}

func TestLoadSVG(t *testing.T) {
	const svg = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<rect x="0" y="0" width="100" height="100" fill="#ff0000"/>
</svg>`

	path := filepath.Join(t.TempDir(), "src.svg")
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		t.Fatal(err)
	}

	img, isVector, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isVector, true)
	testutil.AssertEqual(t, img.Bounds().Dx(), RasterSize)
	testutil.AssertEqual(t, img.Bounds().Dy(), RasterSize)

	center := img.RGBAAt(RasterSize/2, RasterSize/2)
	if center.A != 0xff || center.R < 0xf0 {
		t.Fatalf("center pixel %+v: want opaque red", center)
	}
}

func TestRasterizeInvalid(t *testing.T) {
	_, err := Rasterize(strings.NewReader("not an svg"), 16, 16)
	if err == nil {
		t.Fatal("expected error for invalid SVG")
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
