package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/normalize"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"go.uber.org/zap"
)

// Migration0014_NormalizeItems moves the items embedded in every subscription into the
// shared data collection. Each subscription keeps only the ids of its items, under
// data.itemNodeIdOrIds.
//
// Subscriptions are visited in allIds order, then the remaining byId keys sorted. An item
// fetched by several subscriptions keeps the payload of the last one visited.
var Migration0014_NormalizeItems = migration.StepFunc(14, "normalize items",
	func(doc document.Object, env *migration.Env) error {
		subByID := document.GetObject(doc, "subscriptions", "byId")
		now := env.Now()

		var stored int
		for _, subID := range selectors.SubscriptionIDs(doc) {
			sub, ok := subByID[subID].(document.Object)
			if !ok {
				continue
			}
			subData, ok := sub["data"].(document.Object)
			if !ok {
				continue
			}

			rawItems, hasItems := subData["items"]
			if !hasItems {
				continue
			}
			delete(subData, "items")

			items := document.Array(rawItems)
			if len(items) == 0 {
				continue
			}

			subscriptionID := document.String(sub["id"])
			if subscriptionID == "" {
				subscriptionID = subID
			}
			ids := normalize.Items(normalize.EnsureData(doc), subscriptionID, document.String(sub["type"]), items, now, normalize.Options{})
			subData["itemNodeIdOrIds"] = document.StringArray(ids)
			stored += len(ids)
		}

		env.Logger.Debug("Normalized subscription items", zap.Int("item_count", stored))
		return nil
	})
