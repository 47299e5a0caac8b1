// Package web embeds the HTML templates and static assets of the tracker.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css, js).
//
//go:embed static/*
var StaticFS embed.FS
