// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// pageData is the view model shared by all pages.
type pageData struct {
	Title string
	Flash *auth.Flash
	User  *auth.User
	Token string
}

// Views holds the parsed page templates. Each page is a clone of the shared
// layout with its own content block, so pages cannot leak blocks into each
// other.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.tmpl")
	if err != nil {
		return nil, oops.Code("WEB_TEMPLATE_PARSE").Wrap(err)
	}

	pageFiles := map[string]string{
		"home":           "templates/home.tmpl",
		"secret":         "templates/secret.tmpl",
		"signup":         "templates/signup.tmpl",
		"login":          "templates/login.tmpl",
		"reset-password": "templates/reset_password.tmpl",
		"reset":          "templates/reset.tmpl",
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for name, file := range pageFiles {
		page, cloneErr := layout.Clone()
		if cloneErr != nil {
			return nil, oops.Code("WEB_TEMPLATE_PARSE").With("page", name).Wrap(cloneErr)
		}
		if _, parseErr := page.ParseFS(templateFS, file); parseErr != nil {
			return nil, oops.Code("WEB_TEMPLATE_PARSE").With("page", name).Wrap(parseErr)
		}
		pages[name] = page
	}

	return &Views{pages: pages}, nil
}

// Render writes the named page to w. The page is rendered to a buffer first
// so a template error never produces a half-written response.
func (v *Views) Render(w io.Writer, name string, data pageData) error {
	page, ok := v.pages[name]
	if !ok {
		return oops.Code("WEB_TEMPLATE_UNKNOWN").With("page", name).Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return oops.Code("WEB_TEMPLATE_RENDER").With("page", name).Wrap(err)
	}

	_, err := buf.WriteTo(w)
	return err
}
