package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0017_TeamReviewRequested copies an explicit review_requested notification
// filter to team_review_requested. review_requested is kept.
var Migration0017_TeamReviewRequested = migration.StepFunc(17, "team review requested filter",
	func(doc document.Object, env *migration.Env) error {
		for _, col := range selectors.ColumnsArr(doc) {
			if col["type"] != model.ColumnTypeNotifications {
				continue
			}
			reasons := document.GetObject(col, "filters", "notifications", "reasons")
			if v, ok := document.Bool(reasons["review_requested"]); ok {
				reasons["team_review_requested"] = v
			}
		}
		return nil
	})
