package all

import "github.com/bryan-buckman/feedcolumns/internal/migration"

// Migration0001_Reserved shipped without changes.
var Migration0001_Reserved = migration.Identity(1, "reserved")
