// Package templates embeds the starter template bundles shipped with the binary.
package templates

import "embed"

// FS holds every bundled *.json template.
//
//go:embed *.json
var FS embed.FS
