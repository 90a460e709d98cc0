// Package web provides the embedded dashboard pages and static assets.
package web

import (
	"embed"
)

// Files contains the pages and assets embedded in the binary:
// index.html, integrations.html, and the static/ directory.
//
//go:embed index.html integrations.html static
var Files embed.FS
