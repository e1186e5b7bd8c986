package server

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/woozymasta/trackmap/assets"
	"github.com/woozymasta/trackmap/internal/config"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

type indexData struct {
	CSS    template.CSS
	JS     template.JS
	Panels []config.Panel
}

// buildIndex renders the preview page and minifies it.
func buildIndex(panels []config.Panel) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify css: %w", err)
	}

	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return nil, fmt.Errorf("minify js: %w", err)
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, indexData{
		CSS:    template.CSS(cssMin),
		JS:     template.JS(jsMin),
		Panels: panels,
	})
	if err != nil {
		return nil, fmt.Errorf("execute index template: %w", err)
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}

	return out, nil
}
