package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0007_RenameInboxSavedFilter replaces filters.inbox.saved with filters.saved.
var Migration0007_RenameInboxSavedFilter = migration.StepFunc(7, "rename inbox saved filter",
	func(doc document.Object, env *migration.Env) error {
		for _, col := range selectors.ColumnsArr(doc) {
			filters := document.GetObject(col, "filters")
			if !document.Truthy(filters["inbox"]) {
				continue
			}
			if saved, ok := document.GetObject(filters, "inbox")["saved"]; ok && saved != nil {
				filters["saved"] = saved
			} else {
				delete(filters, "saved")
			}
			delete(filters, "inbox")
		}
		return nil
	})
