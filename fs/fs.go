// Package appfs embeds run-time assets so deployments ship a single binary.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
