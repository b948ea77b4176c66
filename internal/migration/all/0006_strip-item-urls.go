package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0006_StripItemURLs drops the API navigation URLs from every item still
// embedded in a subscription. Only rendered links are kept.
var Migration0006_StripItemURLs = migration.StepFunc(6, "strip item api urls",
	func(doc document.Object, env *migration.Env) error {
		for _, sub := range selectors.AllSubscriptionsArr(doc) {
			data := document.GetObject(sub, "data")
			items := document.Array(data["items"])
			if len(items) == 0 {
				continue
			}
			stripped := make([]any, len(items))
			for i, item := range items {
				stripped[i] = github.RemoveUselessURLs(item)
			}
			data["items"] = stripped
		}
		return nil
	})
