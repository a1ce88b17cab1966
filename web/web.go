// Package web bundles the static front-end so the binary serves it without
// any files on disk.
package web

import "embed"

//go:embed static
var Static embed.FS
