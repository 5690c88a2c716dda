// Package web holds the HTML templates served by cmd/server.
package web

import "embed"

// Templates contains layout.html plus one file per page.
//
//go:embed templates/*.html
var Templates embed.FS
