package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
)

// Migration0013_LoginCounter moves auth.loginCount to counters.loginSuccess. Documents
// without a login count start the counter at 0; an existing counter is never reset.
var Migration0013_LoginCounter = migration.StepFunc(13, "move login counter",
	func(doc document.Object, env *migration.Env) error {
		auth := document.EnsureObject(doc, "auth")
		counters := document.EnsureObject(doc, "counters")

		legacy, hasLegacy := auth["loginCount"]
		if !hasLegacy {
			if _, ok := counters["loginSuccess"]; !ok {
				counters["loginSuccess"] = 0
			}
			return nil
		}

		count, ok := document.Int(legacy)
		if !ok || count < 0 {
			count = 0
		}
		counters["loginSuccess"] = count
		delete(auth, "loginCount")
		return nil
	})
