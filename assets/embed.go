// Package assets embeds the SQL migrations of the level catalog and the
// built-in region toggle rule descriptor.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql rules/*.yaml
var FS embed.FS

// Migrations returns the SQL migration files rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultRule returns the built-in region toggle descriptor.
func DefaultRule() ([]byte, error) {
	return FS.ReadFile("rules/region_toggle.yaml")
}
