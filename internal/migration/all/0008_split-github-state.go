package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
)

var stableUserKeys = []string{"_id", "createdAt", "lastLoginAt", "updatedAt"}

// Migration0008_SplitGitHubState gathers provider state under a top-level github
// sub-document:
//
//   - the legacy app sub-document is dropped;
//   - api.github request headers move to github.api.headers;
//   - auth.user keeps only its stable account fields;
//   - when a provider token was stored, auth.user.github moves to github.auth
//     (token fields under oauth, the provider user under user).
var Migration0008_SplitGitHubState = migration.StepFunc(8, "split github state",
	func(doc document.Object, env *migration.Env) error {
		delete(doc, "app")

		apiState := document.EnsurePath(doc, "github", "api")
		if legacy, ok := doc["api"]; ok {
			legacyAPI, _ := legacy.(document.Object)
			if headers, ok := legacyAPI["github"].(document.Object); ok {
				apiState["headers"] = headers
			} else {
				delete(apiState, "headers")
			}
			delete(doc, "api")
		}

		auth := document.GetObject(doc, "auth")
		user := document.GetObject(auth, "user")
		if user == nil {
			return nil
		}

		shrunk := document.Object{}
		for _, key := range stableUserKeys {
			if v, ok := user[key]; ok {
				shrunk[key] = v
			}
		}
		auth["user"] = shrunk

		provider := document.GetObject(user, "github")
		if !document.Truthy(provider["token"]) {
			return nil
		}

		oauth := document.Object{
			"login": "",
			"token": provider["token"],
		}
		for _, key := range []string{"scope", "tokenCreatedAt", "tokenType"} {
			if v, ok := provider[key]; ok {
				oauth[key] = v
			}
		}
		githubAuth := document.EnsurePath(doc, "github", "auth")
		githubAuth["oauth"] = oauth
		if u, ok := provider["user"]; ok {
			githubAuth["user"] = u
		}
		return nil
	})
