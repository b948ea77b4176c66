package all

import "github.com/bryan-buckman/feedcolumns/internal/migration"

// Migrations is the ordered list of every store migration.
var Migrations = []migration.Step{
	Migration0000_Initial,
	Migration0001_Reserved,
	Migration0002_NormalizeColumns,
	Migration0003_ExtractSubscriptions,
	Migration0004_NestGitHubAuth,
	Migration0005_NestSubscriptionData,
	Migration0006_StripItemURLs,
	Migration0007_RenameInboxSavedFilter,
	Migration0008_SplitGitHubState,
	Migration0009_NormalizeAppViewMode,
	Migration0010_ActivityTypesToActions,
	Migration0011_DashboardSubjectTypes,
	Migration0012_RepoFullNameToOwners,
	Migration0013_LoginCounter,
	Migration0014_NormalizeItems,
	Migration0015_BackfillSubscriptionHistory,
	Migration0016_RenameFetchTimestamps,
	Migration0017_TeamReviewRequested,
}

// Registry returns the registry built from Migrations. It panics if the list has a gap
// or a duplicate, which can only be a programming error.
func Registry() *migration.Registry {
	r, err := migration.NewRegistry(Migrations...)
	if err != nil {
		panic(err)
	}
	return r
}

// Latest is the schema version of documents written by this build.
func Latest() int {
	return len(Migrations) - 1
}
