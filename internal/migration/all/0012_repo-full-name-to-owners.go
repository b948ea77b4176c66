package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"go.uber.org/zap"
)

// Migration0012_RepoFullNameToOwners rewrites the single repoFullName parameter of
// issue/pull-request subscriptions into the owners map:
//
//	params.owners[owner] = {value: true, repos: {[repo]: true}}
//
// Existing owner entries are preserved. Names that do not parse are left in place.
var Migration0012_RepoFullNameToOwners = migration.StepFunc(12, "repo full name to owners",
	func(doc document.Object, env *migration.Env) error {
		for _, sub := range selectors.AllSubscriptionsArr(doc) {
			if sub["type"] != model.ColumnTypeIssueOrPR {
				continue
			}
			params := document.EnsureObject(sub, "params")

			fullName := document.String(params["repoFullName"])
			if fullName == "" {
				continue
			}
			owner, repo := github.OwnerAndRepo(fullName)
			if owner == "" || repo == "" {
				env.Logger.Debug("Skipping unparsable repository name",
					zap.String("subscription_id", document.String(sub["id"])),
					zap.String("repo_full_name", fullName))
				continue
			}

			owners := document.EnsureObject(params, "owners")
			entry, ok := owners[owner].(document.Object)
			if !ok {
				entry = document.Object{"value": true}
				owners[owner] = entry
			}
			document.EnsureObject(entry, "repos")[repo] = true

			delete(params, "repoFullName")
		}
		return nil
	})
