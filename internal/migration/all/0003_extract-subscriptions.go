package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0003_ExtractSubscriptions moves the fetch definition embedded in every
// legacy column into its own subscription and makes the column reference it by id.
// Columns that already reference subscriptions are kept as they are.
var Migration0003_ExtractSubscriptions = migration.StepFunc(3, "extract column subscriptions",
	func(doc document.Object, env *migration.Env) error {
		columns := document.GetObject(doc, "columns")
		if columns == nil {
			return nil
		}

		subscriptions := document.EnsureObject(doc, "subscriptions")
		subByID := document.EnsureObject(subscriptions, "byId")
		subIDs := document.Array(subscriptions["allIds"])
		if subIDs == nil {
			subIDs = []any{}
		}

		byID := document.Object{}
		allIDs := []any{}
		for _, old := range selectors.ColumnsArr(doc) {
			id := document.IDString(old["id"])
			if id == "" {
				continue
			}
			allIDs = append(allIDs, id)

			if _, ok := old["subscriptionIds"].([]any); ok {
				byID[id] = old
				continue
			}

			now := env.Now()
			createdAt, updatedAt := now, now
			if document.Truthy(old["createdAt"]) {
				createdAt = document.String(old["createdAt"])
			}
			if document.Truthy(old["updatedAt"]) {
				updatedAt = document.String(old["updatedAt"])
			}

			subID := env.NewID()
			sub := document.Object{
				"id":        subID,
				"data":      document.Object{},
				"createdAt": createdAt,
				"updatedAt": updatedAt,
			}
			for _, key := range []string{"type", "subtype", "params"} {
				if v, ok := old[key]; ok {
					sub[key] = v
				}
			}
			subByID[subID] = sub
			subIDs = append(subIDs, subID)

			col := document.Object{
				"id":                     id,
				"subscriptionIds":        []any{subID},
				"subscriptionIdsHistory": []any{subID},
				"createdAt":              createdAt,
				"updatedAt":              updatedAt,
			}
			if v, ok := old["type"]; ok {
				col["type"] = v
			}
			if filters, ok := old["filters"].(document.Object); ok {
				col["filters"] = filters
			}
			byID[id] = col
		}

		subscriptions["allIds"] = subIDs
		columns["byId"] = byID
		columns["allIds"] = allIDs
		return nil
	})
