// Package assets embeds the static files of the preview page.
package assets

import _ "embed"

// IndexTemplate is the html/template source of the preview page.
//
//go:embed index.html.tpl
var IndexTemplate string

// Style is the stylesheet inlined into the preview page.
//
//go:embed style.css
var Style string

// Script is the script inlined into the preview page.
//
//go:embed script.js
var Script string
