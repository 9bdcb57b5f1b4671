// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package favicon generates favicons and PWA icons from a single SVG or
raster source image.

Generated layout (MDN-aligned):

	static/
	  site.webmanifest               # unless Config.SkipManifest
	  browserconfig.xml              # only if Config.BrowserConfig
	  icons/
	    favicon.svg                  # only if source was SVG (copied)
	    favicon.ico                  # unless Config.SkipICO
	    favicon-<NxN>.png            # from Config.FaviconSizes (default: 16,32,48,256)
	    apple-touch-icon.png         # unless Config.SkipAppleTouch
	    icon-192x192.png
	    icon-256x256.png             # (tight, non-maskable)
	    icon-512x512.png
	    icon-maskable-512x512.png    # unless Config.SkipMaskable
	    safari-pinned-tab.svg        # only if Config.PinnedSVG provided
	    mstile-150x150.png           # only if Config.BrowserConfig

After writing the files, an HTML fragment referencing exactly the
artifacts that were produced is written to Config.Output. Both phases
consult the same Config, so a flag that suppresses an artifact also
suppresses its HTML reference.
*/
package favicon

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"go.astrophena.name/base/logger"
	"go.astrophena.name/favicon/internal/ico"
	"go.astrophena.name/favicon/internal/imaging"

	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
	"golang.org/x/image/draw"
)

// Possible errors, used in tests.
var (
	errSizesParse    = errors.New("favicon sizes must be a comma-separated list of integers")
	errSizesEmpty    = errors.New("at least one favicon size must be provided")
	errSizesPositive = errors.New("favicon sizes must be positive")
)

// Fixed dimensions of the generated icons.
const (
	appleTouchSize = 180
	maskableSize   = 512
	tileSize       = 150
)

// maxMaskablePadding is the upper bound to which Config.MaskablePadding
// is clamped.
const maxMaskablePadding = 0.3

// pwaSizes are the primary PWA icon sizes, always generated.
var pwaSizes = []int{192, 256, 512}

// icoCandidateSizes are the favicon sizes eligible for inclusion in
// favicon.ico.
var icoCandidateSizes = []int{16, 24, 32, 48, 64}

// icoFallbackSizes are bundled into favicon.ico when no requested
// favicon size is an ICO candidate.
var icoFallbackSizes = []int{16, 32, 48}

//go:embed templates/*
var tplFS embed.FS

// Config represents a generation configuration.
type Config struct {
	// Source is the path of the source image, SVG or raster.
	Source string
	// IconsDir is the directory where icons are written. If empty, uses
	// static/icons.
	IconsDir string
	// ManifestDir is the directory where site.webmanifest and
	// browserconfig.xml are written. If empty, uses static.
	ManifestDir string
	// ThemeColor is the theme color for the web app manifest and meta
	// tags. If empty, uses white.
	ThemeColor string
	// BackgroundColor is the background color for the web app manifest,
	// meta tags and the apple touch icon. If empty, uses white.
	BackgroundColor string
	// Name is the full web app name. If empty, uses "My App".
	Name string
	// ShortName is the short web app name. If empty, uses "App".
	ShortName string
	// MaskablePadding is the padding fraction of the maskable icon,
	// clamped to [0, 0.3].
	MaskablePadding float64
	// PinnedSVG is a path of an SVG copied to icons/safari-pinned-tab.svg.
	// If empty, no pinned tab icon is emitted.
	PinnedSVG string
	// SafariPinnedColor is the color of the mask-icon link. Only affects
	// the HTML fragment. If empty, uses #5bbad5.
	SafariPinnedColor string
	// BrowserConfig determines if a tile PNG and browserconfig.xml
	// should be generated.
	BrowserConfig bool
	// SkipICO determines if favicon.ico should be skipped.
	SkipICO bool
	// SkipAppleTouch determines if apple-touch-icon.png should be
	// skipped.
	SkipAppleTouch bool
	// SkipMaskable determines if the maskable icon and its manifest
	// entry should be skipped.
	SkipMaskable bool
	// SkipManifest determines if site.webmanifest should be skipped.
	SkipManifest bool
	// AutoTrim determines if transparent margins should be trimmed
	// before all resizes.
	AutoTrim bool
	// FaviconSizes are the sizes of the generated favicon-<NxN>.png
	// files, deduplicated and sorted. If empty, uses 16, 32, 48 and 256.
	FaviconSizes []int
	// Flask determines if asset URLs in the HTML fragment are formatted
	// as Flask/Jinja url_for calls instead of literal paths.
	Flask bool
	// PublicPrefix is the base URL prefix for the HTML fragment,
	// normalized to start and end with a slash. Ignored when Flask is
	// set. If empty, uses /static/.
	PublicPrefix string
	// Minify determines if site.webmanifest, browserconfig.xml and
	// copied SVGs should be minified.
	Minify bool
	// Output is where the HTML fragment is written. If nil, uses
	// standard output.
	Output io.Writer
	// Logf specifies a logger to use. If nil, log.Printf is used.
	Logf logger.Logf
}

func (c *Config) setDefaults() {
	if c.IconsDir == "" {
		c.IconsDir = filepath.Join("static", "icons")
	}
	if c.ManifestDir == "" {
		c.ManifestDir = "static"
	}
	if c.ThemeColor == "" {
		c.ThemeColor = "#ffffff"
	}
	if c.BackgroundColor == "" {
		c.BackgroundColor = "#ffffff"
	}
	if c.Name == "" {
		c.Name = "My App"
	}
	if c.ShortName == "" {
		c.ShortName = "App"
	}
	c.MaskablePadding = min(max(c.MaskablePadding, 0), maxMaskablePadding)
	if c.SafariPinnedColor == "" {
		c.SafariPinnedColor = "#5bbad5"
	}
	if len(c.FaviconSizes) == 0 {
		c.FaviconSizes = []int{16, 32, 48, 256}
	}
	c.PublicPrefix = normalizePrefix(c.PublicPrefix)
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
}

// ParseSizes parses a comma-separated list of favicon sizes into a
// deduplicated sorted set of positive integers.
func ParseSizes(s string) ([]int, error) {
	var sizes []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errSizesParse, part)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: %d", errSizesPositive, n)
		}
		if !slices.Contains(sizes, n) {
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return nil, errSizesEmpty
	}
	slices.Sort(sizes)
	return sizes, nil
}

// normalizePrefix normalizes a public URL prefix so that it always
// starts and ends with a slash.
func normalizePrefix(prefix string) string {
	if prefix == "" {
		prefix = "/static/"
	}
	prefix = strings.ReplaceAll(prefix, `\`, "/")
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/") + "/"
}

type genContext struct {
	c        *Config
	img      *image.RGBA
	isVector bool
	min      *minifier
	tpl      *template.Template
}

// Generate generates the icon set described by the provided [Config]
// and writes the matching HTML fragment to Config.Output.
func Generate(c *Config) error {
	c.setDefaults()

	g := &genContext{c: c, min: newMinifier()}
	var err error
	g.tpl, err = template.New("favicon").Funcs(template.FuncMap{
		"asset": g.assetURL,
	}).ParseFS(tplFS, "templates/*")
	if err != nil {
		return err
	}

	for _, dir := range []string{c.IconsDir, c.ManifestDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	g.img, g.isVector, err = imaging.Load(c.Source)
	if err != nil {
		return err
	}
	if c.AutoTrim {
		g.img = imaging.TrimAlpha(g.img)
	}

	if g.isVector {
		if err := g.copySVG(c.Source, "favicon.svg"); err != nil {
			return err
		}
	}
	for _, size := range c.FaviconSizes {
		name := fmt.Sprintf("favicon-%dx%d.png", size, size)
		if err := g.writePNG(imaging.Resize(g.img, size, size), name); err != nil {
			return err
		}
	}
	if !c.SkipAppleTouch {
		if err := g.writeAppleTouch(); err != nil {
			return err
		}
	}
	for _, size := range pwaSizes {
		name := fmt.Sprintf("icon-%dx%d.png", size, size)
		if err := g.writePNG(imaging.Resize(g.img, size, size), name); err != nil {
			return err
		}
	}
	if !c.SkipMaskable {
		if err := g.writeMaskable(); err != nil {
			return err
		}
	}
	if !c.SkipICO {
		if err := g.writeICO(); err != nil {
			return err
		}
	}
	if c.PinnedSVG != "" {
		if err := g.copySVG(c.PinnedSVG, "safari-pinned-tab.svg"); err != nil {
			return err
		}
	}
	if c.BrowserConfig {
		if err := g.writePNG(imaging.Resize(g.img, tileSize, tileSize), "mstile-150x150.png"); err != nil {
			return err
		}
		if err := g.writeBrowserConfig(); err != nil {
			return err
		}
	}
	if !c.SkipManifest {
		if err := g.writeManifest(); err != nil {
			return err
		}
	}

	return g.writeHTML()
}

// writeFile writes b to name inside dir, minifying it first when
// minification is enabled and mediaType is not empty.
func (g *genContext) writeFile(dir, name, mediaType string, b []byte) error {
	if g.c.Minify && mediaType != "" {
		var err error
		b, err = g.min.bytes(mediaType, b)
		if err != nil {
			return err
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	g.c.Logf("wrote %s", path)
	return nil
}

func (g *genContext) writePNG(img image.Image, name string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return g.writeFile(g.c.IconsDir, name, "", buf.Bytes())
}

// copySVG copies the SVG at src verbatim to name inside the icons
// directory. With minification enabled the copy is minified instead.
func (g *genContext) copySVG(src, name string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return g.writeFile(g.c.IconsDir, name, "image/svg+xml", b)
}

// writeAppleTouch writes a 180×180 icon on an opaque background of the
// configured background color, with the source contain-fit and
// centered.
func (g *genContext) writeAppleTouch() error {
	bg, err := imaging.ParseHexColor(g.c.BackgroundColor)
	if err != nil {
		return err
	}
	canvas := image.NewRGBA(image.Rect(0, 0, appleTouchSize, appleTouchSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	icon := imaging.Contain(g.img, appleTouchSize, appleTouchSize)
	g.paste(canvas, icon)
	return g.writePNG(canvas, "apple-touch-icon.png")
}

// writeMaskable writes a 512×512 icon on a fully transparent canvas,
// with the source contain-fit into an inner box shrunk by the padding
// fraction on each side.
func (g *genContext) writeMaskable() error {
	canvas := image.NewRGBA(image.Rect(0, 0, maskableSize, maskableSize))
	inner := int(float64(maskableSize)*(1-2*g.c.MaskablePadding) + 0.5)
	icon := imaging.Contain(g.img, inner, inner)
	g.paste(canvas, icon)
	return g.writePNG(canvas, fmt.Sprintf("icon-maskable-%dx%d.png", maskableSize, maskableSize))
}

// paste composites icon onto the center of canvas, using the icon's
// alpha channel as the mask.
func (g *genContext) paste(canvas *image.RGBA, icon *image.RGBA) {
	offset := imaging.Center(icon.Bounds().Size(), canvas.Bounds().Size())
	r := image.Rectangle{Min: offset, Max: offset.Add(icon.Bounds().Size())}
	draw.Draw(canvas, r, icon, icon.Bounds().Min, draw.Over)
}

// icoSizes returns the favicon sizes bundled into favicon.ico: the
// requested sizes that are ICO candidates, or the fallback set when
// none are.
func (g *genContext) icoSizes() []int {
	var sizes []int
	for _, s := range g.c.FaviconSizes {
		if slices.Contains(icoCandidateSizes, s) {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		sizes = icoFallbackSizes
	}
	return sizes
}

func (g *genContext) writeICO() error {
	sizes := g.icoSizes()
	largest := slices.Max(sizes)
	base := imaging.Contain(g.img, largest, largest)

	var images []image.Image
	for _, s := range sizes {
		images = append(images, imaging.Resize(base, s, s))
	}

	var buf bytes.Buffer
	if err := ico.Encode(&buf, images); err != nil {
		return err
	}
	return g.writeFile(g.c.IconsDir, "favicon.ico", "", buf.Bytes())
}

type manifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose,omitempty"`
}

type manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Icons           []manifestIcon `json:"icons"`
	ThemeColor      string         `json:"theme_color"`
	BackgroundColor string         `json:"background_color"`
	Display         string         `json:"display"`
	Scope           string         `json:"scope"`
	StartURL        string         `json:"start_url"`
}

// writeManifest writes site.webmanifest. Icon order matters for some
// user agents (Windows/Edge): tight, non-maskable icons are listed
// first, largest to smallest.
func (g *genContext) writeManifest() error {
	icons := []manifestIcon{
		{Src: "icons/icon-512x512.png", Sizes: "512x512", Type: "image/png"},
		{Src: "icons/icon-256x256.png", Sizes: "256x256", Type: "image/png"},
		{Src: "icons/icon-192x192.png", Sizes: "192x192", Type: "image/png"},
	}
	if !g.c.SkipMaskable {
		icons = append(icons, manifestIcon{
			Src:     "icons/icon-maskable-512x512.png",
			Sizes:   "512x512",
			Type:    "image/png",
			Purpose: "maskable",
		})
	}
	b, err := json.MarshalIndent(manifest{
		Name:            g.c.Name,
		ShortName:       g.c.ShortName,
		Icons:           icons,
		ThemeColor:      g.c.ThemeColor,
		BackgroundColor: g.c.BackgroundColor,
		Display:         "standalone",
		Scope:           "/",
		StartURL:        "/",
	}, "", "  ")
	if err != nil {
		return err
	}
	return g.writeFile(g.c.ManifestDir, "site.webmanifest", "application/json", append(b, '\n'))
}

func (g *genContext) writeBrowserConfig() error {
	var buf bytes.Buffer
	if err := g.tpl.ExecuteTemplate(&buf, "browserconfig.xml", struct {
		TileColor string
	}{g.c.ThemeColor}); err != nil {
		return err
	}
	return g.writeFile(g.c.ManifestDir, "browserconfig.xml", "text/xml", buf.Bytes())
}

// assetURL formats an asset path for the HTML fragment: a Flask/Jinja
// url_for call in Flask mode, the normalized public prefix otherwise.
func (g *genContext) assetURL(name string) string {
	if g.c.Flask {
		return "{{ url_for('static', filename='" + name + "') }}"
	}
	return g.c.PublicPrefix + name
}

func (g *genContext) writeHTML() error {
	return g.tpl.ExecuteTemplate(g.c.Output, "snippet.html", struct {
		*Config
		IsVector bool
	}{g.c, g.isVector})
}

type minifier struct {
	m *minify.M
}

func newMinifier() *minifier {
	m := minify.New()
	m.AddFunc("application/json", mjson.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("text/xml", xml.Minify)

	return &minifier{m: m}
}

func (m *minifier) bytes(mediaType string, b []byte) ([]byte, error) {
	return m.m.Bytes(mediaType, b)
}
