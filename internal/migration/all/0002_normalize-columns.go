package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
)

// Migration0002_NormalizeColumns turns the legacy columns.columns array into a
// byId/allIds pair. Array order becomes allIds order; entries without an id are dropped.
var Migration0002_NormalizeColumns = migration.StepFunc(2, "normalize columns",
	func(doc document.Object, env *migration.Env) error {
		columns := document.GetObject(doc, "columns")
		legacy, ok := columns["columns"].([]any)
		if !ok {
			return nil
		}

		byID := document.Object{}
		allIDs := []any{}
		for _, v := range legacy {
			col, ok := v.(document.Object)
			if !ok {
				continue
			}
			id := document.IDString(col["id"])
			if id == "" {
				env.Logger.Debug("Dropping legacy column without id")
				continue
			}
			if _, dup := byID[id]; !dup {
				allIDs = append(allIDs, id)
			}
			byID[id] = col
		}

		columns["byId"] = byID
		columns["allIds"] = allIDs
		delete(columns, "columns")
		return nil
	})
