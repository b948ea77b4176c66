package all

import "github.com/bryan-buckman/feedcolumns/internal/migration"

// Migration0000_Initial is the schema of a fresh install.
var Migration0000_Initial = migration.Identity(0, "initial schema")
