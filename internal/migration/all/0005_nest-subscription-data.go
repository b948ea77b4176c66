package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

var fetchStateKeys = []string{"canFetchMore", "errorMessage", "lastFetchedAt", "loadState"}

// Migration0005_NestSubscriptionData moves the fetch state stored next to a
// subscription's item list into a single data object:
//
//	{canFetchMore, errorMessage, items, lastFetchedAt, loadState}
//
// In the legacy shape "data" is the item array itself. When data is already an object
// the sibling fetch state is moved into it, keeping values already nested there.
var Migration0005_NestSubscriptionData = migration.StepFunc(5, "nest subscription fetch state",
	func(doc document.Object, env *migration.Env) error {
		subscriptions := document.EnsureObject(doc, "subscriptions")
		if _, ok := subscriptions["allIds"].([]any); !ok {
			subscriptions["allIds"] = []any{}
		}
		document.EnsureObject(subscriptions, "byId")

		for _, sub := range selectors.AllSubscriptionsArr(doc) {
			data, nested := sub["data"].(document.Object)
			if !nested {
				data = document.Object{}
				if items, ok := sub["data"]; ok && items != nil {
					data["items"] = items
				}
			}
			for _, key := range fetchStateKeys {
				v, ok := sub[key]
				if !ok {
					continue
				}
				delete(sub, key)
				if _, has := data[key]; v != nil && !has {
					data[key] = v
				}
			}
			sub["data"] = data
		}
		return nil
	})
