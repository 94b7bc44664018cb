package appfs

import "embed"

// FS holds the SQL migrations & email templates shipped with the binaries.
//
//go:embed migrations templates
var FS embed.FS
