package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

// Migration0011_DashboardSubjectTypes gives dashboard columns (activity columns backed
// by the user's received events) the subject-type filter of the GitHub dashboard.
// Columns where the user already forced any subject, action or legacy type filter are
// not touched.
var Migration0011_DashboardSubjectTypes = migration.StepFunc(11, "default dashboard subject types",
	func(doc document.Object, env *migration.Env) error {
		subByID := document.GetObject(doc, "subscriptions", "byId")

		for _, col := range selectors.ColumnsArr(doc) {
			if col["type"] != model.ColumnTypeActivity {
				continue
			}
			subIDs := document.Strings(col["subscriptionIds"])
			if len(subIDs) == 0 {
				continue
			}
			sub := document.GetObject(subByID, subIDs[0])
			if sub["type"] != model.ColumnTypeActivity || sub["subtype"] != model.SubtypeUserReceivedEvents {
				continue
			}

			filters := document.GetObject(col, "filters")
			activity := document.GetObject(filters, "activity")
			if selectors.FilterRecordHasAnyForcedValue(filters["subjectTypes"]) ||
				selectors.FilterRecordHasAnyForcedValue(activity["actions"]) ||
				selectors.FilterRecordHasAnyForcedValue(activity["types"]) {
				continue
			}

			document.EnsureObject(col, "filters")["subjectTypes"] = document.Object{
				"Release":    true,
				"Repository": true,
				"Tag":        true,
				"User":       true,
			}
		}
		return nil
	})
