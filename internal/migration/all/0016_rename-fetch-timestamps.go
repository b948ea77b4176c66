package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
)

var fetchTimestampRenames = [][2]string{
	{"lastFetchedAt", "lastFetchRequestAt"},
	{"lastFetchedSuccessfullyAt", "lastFetchSuccessAt"},
}

// renameFetchTimestamps moves the legacy fetch timestamps of a fetch-state record to
// their request/success names.
func renameFetchTimestamps(state document.Object) {
	for _, r := range fetchTimestampRenames {
		from, to := r[0], r[1]
		v, ok := state[from]
		if !ok {
			continue
		}
		state[to] = v
		delete(state, from)
	}
}

// Migration0016_RenameFetchTimestamps renames the fetch timestamps of every subscription
// and of the installations fetch state.
var Migration0016_RenameFetchTimestamps = migration.StepFunc(16, "rename fetch timestamps",
	func(doc document.Object, env *migration.Env) error {
		for _, sub := range selectors.AllSubscriptionsArr(doc) {
			renameFetchTimestamps(document.EnsureObject(sub, "data"))
		}
		renameFetchTimestamps(document.EnsurePath(doc, "github", "installations"))
		return nil
	})
