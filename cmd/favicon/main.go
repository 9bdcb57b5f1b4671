// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/favicon"
)

func main() { cli.Main(new(app)) }

type app struct {
	iconsDir          string
	manifestDir       string
	theme             string
	bg                string
	name              string
	shortName         string
	maskablePadding   float64
	pinnedSVG         string
	safariPinnedColor string
	makeBrowserConfig bool
	noICO             bool
	noAppleTouch      bool
	noMaskable        bool
	noManifest        bool
	autotrim          bool
	faviconSizes      string
	flask             bool
	publicPrefix      string
	minify            bool
	watch             bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.iconsDir, "icons-dir", "static/icons", "Write icons to `dir`.")
	fs.StringVar(&a.manifestDir, "manifest-dir", "static", "Write site.webmanifest and browserconfig.xml to `dir`.")
	fs.StringVar(&a.theme, "pwa-theme", "#ffffff", "Theme `color` for PWA meta.")
	fs.StringVar(&a.bg, "pwa-bg", "#ffffff", "Background `color` for PWA meta.")
	fs.StringVar(&a.name, "pwa-name", "My App", "Full PWA `name`.")
	fs.StringVar(&a.shortName, "pwa-short-name", "App", "Short PWA `name`.")
	fs.Float64Var(&a.maskablePadding, "maskable-padding", 0.12, "Maskable icon padding `fraction`, clamped to [0, 0.3].")
	fs.StringVar(&a.pinnedSVG, "pinned-svg", "", "Copy SVG from `path` to icons/safari-pinned-tab.svg.")
	fs.StringVar(&a.safariPinnedColor, "safari-pinned-color", "#5bbad5", "`color` for the mask-icon link; only with -pinned-svg.")
	fs.BoolVar(&a.makeBrowserConfig, "make-browserconfig", false, "Generate a tile PNG and browserconfig.xml.")
	fs.BoolVar(&a.noICO, "no-ico", false, "Skip generating favicon.ico.")
	fs.BoolVar(&a.noAppleTouch, "no-apple-touch", false, "Skip apple-touch-icon.png.")
	fs.BoolVar(&a.noMaskable, "no-maskable", false, "Skip maskable icon and manifest entry.")
	fs.BoolVar(&a.noManifest, "no-manifest", false, "Skip writing site.webmanifest and omit its <link>.")
	fs.BoolVar(&a.autotrim, "autotrim", false, "Trim transparent margins before all resizes.")
	fs.StringVar(&a.faviconSizes, "favicon-sizes", "16,32,48,256", "Comma-separated PNG favicon `sizes` (e.g. 16,32,48,96,128,256).")
	fs.BoolVar(&a.flask, "flask", false, "Output Flask/Jinja paths.")
	fs.StringVar(&a.publicPrefix, "public-prefix", "/static/", "Base URL `prefix` for the HTML snippet (ignored with -flask).")
	fs.BoolVar(&a.minify, "minify", false, "Minify site.webmanifest, browserconfig.xml and copied SVGs.")
	fs.BoolVar(&a.watch, "watch", false, "Watch the source image and regenerate on changes.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	if len(env.Args) != 1 {
		return fmt.Errorf("%w: want source image path", cli.ErrInvalidArgs)
	}

	sizes, err := favicon.ParseSizes(a.faviconSizes)
	if err != nil {
		return err
	}

	c := &favicon.Config{
		Source:            env.Args[0],
		IconsDir:          a.iconsDir,
		ManifestDir:       a.manifestDir,
		ThemeColor:        a.theme,
		BackgroundColor:   a.bg,
		Name:              a.name,
		ShortName:         a.shortName,
		MaskablePadding:   a.maskablePadding,
		PinnedSVG:         a.pinnedSVG,
		SafariPinnedColor: a.safariPinnedColor,
		BrowserConfig:     a.makeBrowserConfig,
		SkipICO:           a.noICO,
		SkipAppleTouch:    a.noAppleTouch,
		SkipMaskable:      a.noMaskable,
		SkipManifest:      a.noManifest,
		AutoTrim:          a.autotrim,
		FaviconSizes:      sizes,
		Flask:             a.flask,
		PublicPrefix:      a.publicPrefix,
		Minify:            a.minify,
		Output:            os.Stdout,
	}

	if a.watch {
		return favicon.Watch(ctx, c)
	}
	return favicon.Generate(c)
}
