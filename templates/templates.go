// Package templates holds the HTML of the public site.
package templates

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed html/*.html
var files embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"now": time.Now,
	"media": func(name string) string {
		if name == "" {
			return ""
		}
		return "/media/" + strings.TrimPrefix(name, "/")
	},
	"date": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}

// Load parses every embedded template.
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(files, "html/*.html")
}
