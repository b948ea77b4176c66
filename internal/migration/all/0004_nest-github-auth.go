package all

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
)

var legacyAuthKeys = []string{"githubScope", "githubToken", "githubTokenType", "githubTokenCreatedAt", "lastLoginAt"}

// Migration0004_NestGitHubAuth groups the flat provider token fields of auth under
// auth.user.github. Null timestamps and tokens become empty strings.
var Migration0004_NestGitHubAuth = migration.StepFunc(4, "nest github auth",
	func(doc document.Object, env *migration.Env) error {
		old, ok := doc["auth"].(document.Object)
		if !ok || !isFlatAuth(old) {
			return nil
		}

		var user any
		if document.Truthy(old["user"]) {
			scope := old["githubScope"]
			if !document.Truthy(scope) {
				scope = []any{}
			}
			user = document.Object{
				"_id": "",
				"github": document.Object{
					"scope":          scope,
					"token":          document.String(old["githubToken"]),
					"tokenType":      document.String(old["githubTokenType"]),
					"tokenCreatedAt": document.String(old["githubTokenCreatedAt"]),
					"user":           old["user"],
				},
				"createdAt":   "",
				"updatedAt":   "",
				"lastLoginAt": document.String(old["lastLoginAt"]),
			}
		}

		doc["auth"] = document.Object{
			"appToken":          old["appToken"],
			"error":             nil,
			"isDeletingAccount": false,
			"isLoggingIn":       false,
			"user":              user,
		}
		return nil
	})

// isFlatAuth reports whether auth still has the pre-version-4 shape: provider fields at
// the top level, or a bare provider user that has not been wrapped yet.
func isFlatAuth(auth document.Object) bool {
	for _, key := range legacyAuthKeys {
		if document.Has(auth, key) {
			return true
		}
	}
	user, ok := auth["user"].(document.Object)
	return ok && !document.Has(user, "_id") && !document.Has(user, "github")
}
