package all_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/migration/all"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)

const nowStamp = "2019-03-01T12:00:00.000Z"

var fixtures = []string{"legacy_v0.json", "fetched_v4.json", "current_v12.json"}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newEnv(t *testing.T) *migration.Env {
	return migration.NewEnv(zaptest.NewLogger(t), func() time.Time { return fixedNow }, sequentialIDs())
}

func newMigrator(t *testing.T, r *migration.Registry) *migration.Migrator {
	return migration.NewMigrator(zaptest.NewLogger(t), r,
		migration.WithNow(func() time.Time { return fixedNow }),
		migration.WithIDGenerator(sequentialIDs()),
	)
}

func loadFixture(t *testing.T, name string) document.Object {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	doc, err := document.Decode(f)
	require.NoError(t, err)
	return doc
}

func parse(t *testing.T, s string) document.Object {
	t.Helper()
	doc, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return doc
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// migrateTo runs the registered steps up to and including version.
func migrateTo(t *testing.T, doc document.Object, version int) document.Object {
	t.Helper()
	r, err := migration.NewRegistry(all.Migrations[:version+1]...)
	require.NoError(t, err)

	out, _, err := newMigrator(t, r).Migrate(doc)
	require.NoError(t, err)
	return out
}

func up(t *testing.T, step migration.Step, doc document.Object) document.Object {
	t.Helper()
	out := document.CloneObject(doc)
	require.NoError(t, step.Up(out, newEnv(t)))
	return out
}

func TestRegistry(t *testing.T) {
	r := all.Registry()
	assert.Equal(t, 17, r.Latest())
	assert.Equal(t, all.Latest(), r.Latest())

	for i, s := range r.Steps() {
		assert.Equal(t, i, s.Version())
		assert.NotEmpty(t, s.MigrationName())
	}
}

func TestScenarioLegacyColumnsGetOneSubscriptionEach(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "legacy_v0.json"), 3)

	assert.Equal(t, 3, document.Version(out))
	assert.Nil(t, document.Get(out, "columns", "columns"))
	assert.Equal(t, []string{"col-feed", "col-inbox"}, document.Strings(document.Get(out, "columns", "allIds")))

	subByID := document.GetObject(out, "subscriptions", "byId")
	require.Len(t, subByID, 2)

	seen := map[string]bool{}
	for _, colID := range []string{"col-feed", "col-inbox"} {
		col := document.GetObject(out, "columns", "byId", colID)
		ids := document.Strings(col["subscriptionIds"])
		require.Len(t, ids, 1, colID)
		assert.Equal(t, ids, document.Strings(col["subscriptionIdsHistory"]), colID)
		assert.False(t, seen[ids[0]], "subscription shared between columns")
		seen[ids[0]] = true

		sub := document.GetObject(subByID, ids[0])
		require.NotNil(t, sub)
		assert.Equal(t, ids[0], sub["id"])
		assert.Equal(t, col["type"], sub["type"])
	}

	feed := document.GetObject(subByID, document.Strings(document.Get(out, "columns", "byId", "col-feed", "subscriptionIds"))[0])
	assert.Equal(t, "USER_RECEIVED_EVENTS", feed["subtype"])
	assert.Equal(t, "2018-10-01T00:00:00.000Z", feed["createdAt"])
	inbox := document.GetObject(subByID, document.Strings(document.Get(out, "columns", "byId", "col-inbox", "subscriptionIds"))[0])
	assert.Equal(t, nowStamp, inbox["createdAt"])
}

func TestScenarioInboxSavedFilterRenamed(t *testing.T) {
	doc := parse(t, `{"columns":{"allIds":["c"],"byId":{"c":{"id":"c","filters":{"inbox":{"saved":true}}}}}}`)
	out := up(t, all.Migration0007_RenameInboxSavedFilter, doc)

	filters := document.GetObject(out, "columns", "byId", "c", "filters")
	assert.Equal(t, true, filters["saved"])
	assert.NotContains(t, filters, "inbox")

	replaced := parse(t, `{"columns":{"allIds":["c"],"byId":{"c":{"id":"c","filters":{"inbox":{"archived":true},"saved":false}}}}}`)
	assert.JSONEq(t, `{}`, jsonOf(t, document.Get(up(t, all.Migration0007_RenameInboxSavedFilter, replaced), "columns", "byId", "c", "filters")))

	untouched := parse(t, `{"columns":{"allIds":["c"],"byId":{"c":{"id":"c","filters":{"saved":false}}}}}`)
	assert.True(t, document.Equal(untouched, up(t, all.Migration0007_RenameInboxSavedFilter, untouched)))
}

func TestScenarioRepoFullNameToOwners(t *testing.T) {
	doc := parse(t, `{"subscriptions":{"allIds":["s"],"byId":{"s":{"id":"s","type":"issue_or_pr","params":{"repoFullName":"acme/widgets"}}}}}`)
	out := up(t, all.Migration0012_RepoFullNameToOwners, doc)

	params := document.GetObject(out, "subscriptions", "byId", "s", "params")
	assert.Equal(t, true, document.Get(params, "owners", "acme", "repos", "widgets"))
	assert.Equal(t, true, document.Get(params, "owners", "acme", "value"))
	assert.NotContains(t, params, "repoFullName")
}

func TestRepoFullNameKeepsExistingOwners(t *testing.T) {
	doc := parse(t, `{"subscriptions":{"allIds":["s"],"byId":{"s":{"id":"s","type":"issue_or_pr","params":{
		"repoFullName":"acme/widgets",
		"owners":{"acme":{"value":false,"repos":{"gadgets":true}},"other":{"value":true}}
	}}}}}`)
	out := up(t, all.Migration0012_RepoFullNameToOwners, doc)

	owners := document.GetObject(out, "subscriptions", "byId", "s", "params", "owners")
	assert.JSONEq(t, `{
		"acme":{"value":false,"repos":{"gadgets":true,"widgets":true}},
		"other":{"value":true}
	}`, jsonOf(t, owners))
}

func TestScenarioUnparsableRepoFullName(t *testing.T) {
	for _, name := range []string{"", "acme", "/widgets", " / "} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			doc := document.Object{"subscriptions": document.Object{
				"allIds": []any{"s"},
				"byId": document.Object{"s": document.Object{
					"id": "s", "type": "issue_or_pr", "params": document.Object{"repoFullName": name},
				}},
			}}
			out := up(t, all.Migration0012_RepoFullNameToOwners, doc)

			params := document.GetObject(out, "subscriptions", "byId", "s", "params")
			assert.NotContains(t, params, "owners")
			assert.Equal(t, name, params["repoFullName"])
		})
	}
}

func TestScenarioSharedItemReferencesBothSubscriptions(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "fetched_v4.json"), 14)

	data := document.GetObject(out, "data")
	const shared = "MDU6RXZlbnQxMDE="
	assert.Equal(t, []string{shared, "102", "n1"}, document.Strings(data["allIds"]))

	entry := document.GetObject(data, "byId", shared)
	require.NotNil(t, entry)
	assert.Equal(t, []string{"s-user", "s-repo"}, document.Strings(entry["subscriptionIds"]))
	assert.Equal(t, model.ItemTypeEvent, entry["type"])

	// s-repo is visited last and its payload wins.
	item := document.GetObject(entry, "item")
	assert.Equal(t, "2019-01-11T00:00:00.000Z", item["last_read_at"])
	assert.NotContains(t, document.GetObject(item, "actor"), "followers_url")

	assert.Equal(t, []string{shared, "102"}, document.Strings(document.Get(out, "subscriptions", "byId", "s-user", "data", "itemNodeIdOrIds")))
	assert.Equal(t, []string{shared}, document.Strings(document.Get(out, "subscriptions", "byId", "s-repo", "data", "itemNodeIdOrIds")))
	assert.Equal(t, []string{shared, "102"}, document.Strings(document.Get(data, "idsBySubscriptionId", "s-user")))
	assert.Equal(t, []string{shared, "102"}, document.Strings(document.Get(data, "idsByType", model.ItemTypeEvent)))
	assert.Equal(t, []string{"n1"}, document.Strings(document.Get(data, "idsByType", model.ItemTypeNotification)))

	assert.Equal(t, []string{"102", shared}, document.Strings(data["readIds"]))
	assert.Equal(t, []string{"n1"}, document.Strings(data["savedIds"]))

	notification := document.GetObject(data, "byId", "n1", "item")
	assert.NotContains(t, notification, "saved")
	assert.Equal(t, nowStamp, notification["last_saved_at"])
	assert.NotContains(t, document.GetObject(notification, "repository"), "keys_url")
	assert.Contains(t, document.GetObject(notification, "subject"), "latest_comment_url")
}

func TestNormalizeItemsNeverDropsSavedIDs(t *testing.T) {
	doc := parse(t, `{
		"subscriptions":{"allIds":["s"],"byId":{"s":{"id":"s","type":"activity","data":{"items":[
			{"id":"1","saved":false},
			{"id":"2","saved":true,"last_saved_at":"2019-01-01T00:00:00.000Z"}
		]}}}},
		"data":{"allIds":["1"],"byId":{"1":{"item":{"id":"1"},"type":"event","subscriptionIds":["s"]}},"savedIds":["1"],"readIds":[]}
	}`)
	out := up(t, all.Migration0014_NormalizeItems, doc)

	data := document.GetObject(out, "data")
	assert.Equal(t, []string{"1", "2"}, document.Strings(data["savedIds"]))
	assert.Equal(t, "2019-01-01T00:00:00.000Z", document.Get(data, "byId", "2", "item", "last_saved_at"))
	assert.Equal(t, nowStamp, data["updatedAt"])
	assert.NotContains(t, document.GetObject(out, "subscriptions", "byId", "s", "data"), "items")
}

func TestNotificationsAreNeverTrackedAsRead(t *testing.T) {
	doc := parse(t, `{"subscriptions":{"allIds":["s"],"byId":{"s":{"id":"s","type":"notifications","data":{"items":[
		{"id":"n1","unread":false,"last_read_at":"2019-01-01T00:00:00.000Z"}
	]}}}}}`)
	out := up(t, all.Migration0014_NormalizeItems, doc)

	assert.Empty(t, document.Array(document.Get(out, "data", "readIds")))
	assert.Equal(t, []string{"n1"}, document.Strings(document.Get(out, "data", "allIds")))
}

func TestNormalizeItemsRetypesSharedItem(t *testing.T) {
	doc := parse(t, `{"_persist":{"version":13},"subscriptions":{"allIds":["a","b"],"byId":{
		"a":{"id":"a","type":"activity","data":{"items":[{"id":42}]}},
		"b":{"id":"b","type":"notifications","data":{"items":[{"id":"42","unread":true}]}}
	}}}`)
	out, res, err := newMigrator(t, all.Registry()).Migrate(doc)
	require.NoError(t, err)
	assert.Equal(t, all.Latest(), res.To)

	data := document.GetObject(out, "data")
	assert.Equal(t, model.ItemTypeNotification, document.Get(data, "byId", "42", "type"))
	assert.JSONEq(t, `{"notification":["42"]}`, jsonOf(t, data["idsByType"]))
	assert.NoError(t, state.Check(out))
}

func TestNestGitHubAuth(t *testing.T) {
	doc := parse(t, `{"auth":{
		"appToken":"app","githubScope":null,"githubToken":"tok","githubTokenType":null,
		"githubTokenCreatedAt":null,"lastLoginAt":null,"user":{"login":"octocat"}
	}}`)
	out := up(t, all.Migration0004_NestGitHubAuth, doc)

	assert.JSONEq(t, `{
		"appToken":"app","error":null,"isDeletingAccount":false,"isLoggingIn":false,
		"user":{
			"_id":"","createdAt":"","updatedAt":"","lastLoginAt":"",
			"github":{"scope":[],"token":"tok","tokenType":"","tokenCreatedAt":"","user":{"login":"octocat"}}
		}
	}`, jsonOf(t, out["auth"]))

	anonymous := up(t, all.Migration0004_NestGitHubAuth, parse(t, `{"auth":{"appToken":null,"githubToken":null,"user":null}}`))
	assert.Nil(t, document.Get(anonymous, "auth", "user"))
}

func TestNestSubscriptionData(t *testing.T) {
	doc := parse(t, `{"subscriptions":{"allIds":["s"],"byId":{"s":{
		"id":"s","type":"activity","data":[{"id":"1"}],
		"loadState":"loaded","errorMessage":"rate limited","canFetchMore":false,"lastFetchedAt":"2019-01-01T00:00:00.000Z"
	}}}}`)
	out := up(t, all.Migration0005_NestSubscriptionData, doc)

	assert.JSONEq(t, `{
		"id":"s","type":"activity",
		"data":{"items":[{"id":"1"}],"loadState":"loaded","errorMessage":"rate limited","canFetchMore":false,"lastFetchedAt":"2019-01-01T00:00:00.000Z"}
	}`, jsonOf(t, document.Get(out, "subscriptions", "byId", "s")))

	nested := parse(t, `{"subscriptions":{"allIds":["s"],"byId":{"s":{
		"id":"s","type":"activity","data":{"loadState":"loading"},
		"loadState":"loaded","errorMessage":"rate limited","lastFetchedAt":null
	}}}}`)
	out = up(t, all.Migration0005_NestSubscriptionData, nested)
	assert.JSONEq(t, `{
		"id":"s","type":"activity",
		"data":{"loadState":"loading","errorMessage":"rate limited"}
	}`, jsonOf(t, document.Get(out, "subscriptions", "byId", "s")))

	empty := up(t, all.Migration0005_NestSubscriptionData, document.Object{})
	assert.JSONEq(t, `{"subscriptions":{"allIds":[],"byId":{}}}`, jsonOf(t, empty))
}

func TestSplitGitHubState(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "legacy_v0.json"), 8)

	assert.NotContains(t, out, "app")
	assert.NotContains(t, out, "api")
	assert.JSONEq(t, `{"x-ratelimit-remaining":"4990"}`, jsonOf(t, document.Get(out, "github", "api", "headers")))
	assert.JSONEq(t, `{"_id":"","createdAt":"","updatedAt":"","lastLoginAt":"2018-11-02T10:00:00.000Z"}`,
		jsonOf(t, document.Get(out, "auth", "user")))
	assert.JSONEq(t, `{
		"oauth":{"login":"","token":"gh-token","scope":["notifications","user"],"tokenCreatedAt":"","tokenType":"bearer"},
		"user":{"login":"octocat","id":583231,"avatarUrl":"https://avatars.githubusercontent.com/u/583231"}
	}`, jsonOf(t, document.Get(out, "github", "auth")))
}

func TestSplitGitHubStateWithoutToken(t *testing.T) {
	doc := parse(t, `{"auth":{"user":{"_id":"u1","github":{"token":"","user":{"login":"x"}},"isAdmin":true}}}`)
	out := up(t, all.Migration0008_SplitGitHubState, doc)

	assert.JSONEq(t, `{"_id":"u1"}`, jsonOf(t, document.Get(out, "auth", "user")))
	assert.Nil(t, document.Get(out, "github", "auth"))
}

func TestNormalizeAppViewMode(t *testing.T) {
	for in, want := range map[string]string{
		`{"config":{"appViewMode":"single-column"}}`: model.AppViewModeSingleColumn,
		`{"config":{"appViewMode":"multi-column"}}`:  model.AppViewModeMultiColumn,
		`{"config":{"appViewMode":"columns"}}`:       model.AppViewModeMultiColumn,
		`{"config":{"appViewMode":null}}`:            model.AppViewModeMultiColumn,
		`{}`:                                         model.AppViewModeMultiColumn,
	} {
		out := up(t, all.Migration0009_NormalizeAppViewMode, parse(t, in))
		assert.Equal(t, want, document.Get(out, "config", "appViewMode"), in)
	}
}

func TestActivityTypesToActions(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "fetched_v4.json"), 10)

	filters := document.GetObject(out, "columns", "byId", "c-events", "filters")
	assert.JSONEq(t, `{
		"subjectTypes":{},
		"activity":{
			"types":{"WatchEvent":false,"IssuesEvent":true,"BogusEvent":true},
			"actions":{"starred":false}
		}
	}`, jsonOf(t, filters))
	assert.NotContains(t, document.GetObject(out, "columns", "byId", "c-issues"), "filters")
}

func TestDashboardSubjectTypes(t *testing.T) {
	const base = `{
		"columns":{"allIds":["c"],"byId":{"c":{"id":"c","type":"activity","subscriptionIds":["s"]%s}}},
		"subscriptions":{"allIds":["s"],"byId":{"s":{"id":"s","type":"activity","subtype":"%s"}}}
	}`

	out := up(t, all.Migration0011_DashboardSubjectTypes, parse(t, fmt.Sprintf(base, "", "USER_RECEIVED_EVENTS")))
	assert.JSONEq(t, `{"Release":true,"Repository":true,"Tag":true,"User":true}`,
		jsonOf(t, document.Get(out, "columns", "byId", "c", "filters", "subjectTypes")))

	for name, tc := range map[string][2]string{
		"other subtype":    {"", "USER_EVENTS"},
		"subject override": {`,"filters":{"subjectTypes":{"Issue":false}}`, "USER_RECEIVED_EVENTS"},
		"action override":  {`,"filters":{"activity":{"actions":{"starred":true}}}`, "USER_RECEIVED_EVENTS"},
		"legacy override":  {`,"filters":{"activity":{"types":{"WatchEvent":false}}}`, "USER_RECEIVED_EVENTS"},
	} {
		doc := parse(t, fmt.Sprintf(base, tc[0], tc[1]))
		assert.True(t, document.Equal(doc, up(t, all.Migration0011_DashboardSubjectTypes, doc)), name)
	}
}

func TestLoginCounter(t *testing.T) {
	out := up(t, all.Migration0013_LoginCounter, parse(t, `{"auth":{"loginCount":7}}`))
	n, ok := document.Int(document.Get(out, "counters", "loginSuccess"))
	require.True(t, ok)
	assert.EqualValues(t, 7, n)
	assert.NotContains(t, document.GetObject(out, "auth"), "loginCount")

	out = up(t, all.Migration0013_LoginCounter, document.Object{})
	n, ok = document.Int(document.Get(out, "counters", "loginSuccess"))
	require.True(t, ok)
	assert.EqualValues(t, 0, n)
}

func TestBackfillSubscriptionHistory(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "current_v12.json"), 15)

	assert.Equal(t, []string{"s-a"}, document.Strings(document.Get(out, "columns", "byId", "c-a", "subscriptionIdsHistory")))
	assert.Equal(t, []string{"s-b", "s-a"}, document.Strings(document.Get(out, "columns", "byId", "c-b", "subscriptionIdsHistory")))
}

func TestRenameFetchTimestamps(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "current_v12.json"), 16)

	assert.JSONEq(t, `{
		"loadState":"loaded",
		"lastFetchRequestAt":"2019-02-01T00:00:00.000Z",
		"lastFetchSuccessAt":"2019-01-31T00:00:00.000Z",
		"itemNodeIdOrIds":["201","202"]
	}`, jsonOf(t, document.Get(out, "subscriptions", "byId", "s-a", "data")))
	assert.JSONEq(t, `{"lastFetchRequestAt":"2019-02-02T00:00:00.000Z"}`, jsonOf(t, document.Get(out, "github", "installations")))
}

func TestTeamReviewRequested(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "fetched_v4.json"), 17)
	assert.JSONEq(t, `{"review_requested":true,"team_review_requested":true}`,
		jsonOf(t, document.Get(out, "columns", "byId", "c-notifs", "filters", "notifications", "reasons")))

	unset := parse(t, `{"columns":{"allIds":["c"],"byId":{"c":{"id":"c","type":"notifications","filters":{"notifications":{"reasons":{"mention":true}}}}}}}`)
	assert.True(t, document.Equal(unset, up(t, all.Migration0017_TeamReviewRequested, unset)))
}

func TestLegacyDocumentReachesLatest(t *testing.T) {
	out := migrateTo(t, loadFixture(t, "legacy_v0.json"), all.Latest())

	s, err := model.FromDocument(out)
	require.NoError(t, err)
	assert.Equal(t, 17, s.Persist.Version)
	assert.Equal(t, model.AppViewModeMultiColumn, s.Config.AppViewMode)
	assert.Equal(t, 0, s.Counters.LoginSuccess)

	feed := s.Columns.ByID["col-feed"]
	require.NotNil(t, feed)
	assert.JSONEq(t, `{"subjectTypes":{"Release":true,"Repository":true,"Tag":true,"User":true}}`, jsonOf(t, feed.Filters))

	inbox := s.Columns.ByID["col-inbox"]
	require.NotNil(t, inbox)
	assert.JSONEq(t, `{"saved":true,"notifications":{"reasons":{"review_requested":false,"team_review_requested":false}}}`, jsonOf(t, inbox.Filters))

	require.NotNil(t, s.GitHub.Auth.OAuth)
	assert.Equal(t, "gh-token", s.GitHub.Auth.OAuth.Token)
}

// Every fixture must come out satisfying the model invariants, with derived indices
// matching a rebuild from byId, and must not change when migrated again.
func TestMigrateFixtures(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			in := loadFixture(t, name)
			pristine := document.CloneObject(in)
			m := newMigrator(t, all.Registry())

			out, res, err := m.Migrate(in)
			require.NoError(t, err)
			assert.Equal(t, all.Latest(), res.To)
			assert.Equal(t, all.Latest(), document.Version(out))
			assert.True(t, document.Equal(pristine, in), "input modified")

			s, err := model.FromDocument(out)
			require.NoError(t, err)
			require.NoError(t, model.Validate(s))

			rebuilt := s.Data.Rebuild()
			assert.Empty(t, cmp.Diff(rebuilt.AllIDs, sorted(s.Data.AllIDs)))
			for typ, ids := range rebuilt.IDsByType {
				assert.Empty(t, cmp.Diff(ids, sorted(s.Data.IDsByType[typ])), typ)
			}
			for sid, ids := range rebuilt.IDsBySubscriptionID {
				assert.Empty(t, cmp.Diff(ids, sorted(s.Data.IDsBySubscriptionID[sid])), sid)
			}
			for _, id := range rebuilt.ReadIDs {
				assert.Contains(t, s.Data.ReadIDs, id)
			}
			for _, id := range rebuilt.SavedIDs {
				assert.Contains(t, s.Data.SavedIDs, id)
			}

			again, res, err := m.Migrate(out)
			require.NoError(t, err)
			assert.Empty(t, res.Applied)
			assert.True(t, document.Equal(out, again), cmp.Diff(out, again))
		})
	}
}

// Re-running a step on its own output must not change it.
func TestStepsAreIdempotent(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			doc := loadFixture(t, name)
			for _, step := range all.Registry().Steps() {
				if step.Version() <= document.Version(doc) {
					continue
				}
				once := up(t, step, doc)
				twice := up(t, step, once)
				assert.True(t, document.Equal(once, twice), "%d %s: %s", step.Version(), step.MigrationName(), cmp.Diff(once, twice))
				doc = once
			}
		})
	}
}

func sorted(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
