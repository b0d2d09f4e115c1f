package migrations

import "embed"

// Files exposes embedded SQL migration files, one directory per SQL backend,
// ordered lexicographically inside each directory.
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
