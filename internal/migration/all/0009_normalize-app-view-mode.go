package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/model"
)

// Migration0009_NormalizeAppViewMode restricts config.appViewMode to the two known
// modes. Anything but single-column becomes multi-column.
var Migration0009_NormalizeAppViewMode = migration.StepFunc(9, "normalize app view mode",
	func(doc document.Object, env *migration.Env) error {
		config := document.EnsureObject(doc, "config")
		if config["appViewMode"] == model.AppViewModeSingleColumn {
			return nil
		}
		config["appViewMode"] = model.AppViewModeMultiColumn
		return nil
	})
