package web

import "embed"

// TemplatesFS embeds the layout and one template per page.
//
//go:embed templates/*.html templates/pages/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
