// Package templates embeds the default output templates.
package templates

import "embed"

//go:embed go/*.tmpl
var FS embed.FS
