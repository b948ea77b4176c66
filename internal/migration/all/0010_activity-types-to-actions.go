package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"go.uber.org/zap"
)

// Migration0010_ActivityTypesToActions translates the legacy event-type filter of
// activity columns (filters.activity.types, keyed by event type) into the action filter
// (filters.activity.actions). Only explicitly set entries are carried over. Event types
// without a fixed action, or unknown to this build, are skipped.
//
// The legacy types map is kept.
var Migration0010_ActivityTypesToActions = migration.StepFunc(10, "activity types to actions",
	func(doc document.Object, env *migration.Env) error {
		for _, col := range selectors.ColumnsArr(doc) {
			filters := document.GetObject(col, "filters")
			activity := document.GetObject(filters, "activity")
			types := document.GetObject(activity, "types")
			if !selectors.FilterRecordHasAnyForcedValue(types) {
				continue
			}

			document.EnsureObject(filters, "subjectTypes")
			actions := document.EnsureObject(activity, "actions")

			for _, eventType := range document.SortedKeys(types) {
				forced, ok := document.Bool(types[eventType])
				if !ok {
					continue
				}
				md, err := github.LookupEventMetadata(eventType)
				if err != nil {
					env.Logger.Debug("Skipping legacy activity filter",
						zap.String("column_id", document.String(col["id"])),
						zap.String("event_type", eventType),
						zap.Error(err))
					continue
				}
				if md.Action == "" {
					continue
				}
				actions[md.Action] = forced
			}
		}
		return nil
	})
