// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Favicon generates favicons and PWA icons from a single SVG or raster
source image.

# Usage:

	$ favicon [flags] <source>

Favicon writes the icon set under the icons and manifest directories
(default "static/icons" and "static"), creating them if needed, then
prints an HTML fragment referencing exactly the generated artifacts to
standard output. With -watch it keeps running and regenerates the icon
set whenever the source image changes.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
