package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0015_BackfillSubscriptionHistory appends to subscriptionIdsHistory every
// current subscription id it is missing.
var Migration0015_BackfillSubscriptionHistory = migration.StepFunc(15, "backfill subscription history",
	func(doc document.Object, env *migration.Env) error {
		for _, col := range selectors.ColumnsArr(doc) {
			ids := document.Array(col["subscriptionIds"])
			history := document.Array(col["subscriptionIdsHistory"])
			if history == nil {
				history = []any{}
			}
			for _, id := range ids {
				s := document.String(id)
				if s == "" {
					continue
				}
				history = document.AppendUnique(history, s)
			}
			if ids == nil {
				ids = []any{}
			}
			col["subscriptionIds"] = ids
			col["subscriptionIdsHistory"] = history
		}
		return nil
	})
