package web

import "embed"

// StaticFS holds the embedded first-party assets under static/. The asset
// cache fetches them through a file:// transport rooted here.
//
//go:embed static
var StaticFS embed.FS
