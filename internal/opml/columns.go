package opml

import (
	"context"
	"net/url"
	"strings"

	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/rss"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"github.com/bryan-buckman/feedcolumns/internal/state"
)

// Group names used for exported columns.
const (
	GroupUserActivity     = "Activity"
	GroupReceivedActivity = "Dashboard"
)

// ColumnEntries lists the feed of every activity column whose first subscription has
// one, in column order.
func ColumnEntries(st model.State, baseURL string) []Entry {
	var entries []Entry
	for _, col := range selectors.Columns(st) {
		subs := selectors.ColumnSubscriptions(st, col.ID)
		if len(subs) == 0 {
			continue
		}
		sub := subs[0]
		feedURL, err := rss.FeedURL(baseURL, sub)
		if err != nil {
			continue
		}
		username := rss.UsernameFromFeedURL(baseURL, feedURL)

		group := GroupUserActivity
		if sub.Subtype == model.SubtypeUserReceivedEvents {
			group = GroupReceivedActivity
		}
		entries = append(entries, Entry{
			Group:   group,
			Title:   username + " " + strings.ToLower(group),
			URL:     feedURL,
			HTMLURL: strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(username),
		})
	}
	return entries
}

// ImportEntries adds a column for every user activity feed not already subscribed to.
// Entries under the Dashboard group become received-events columns. It returns the ids
// of the new columns.
func ImportEntries(ctx context.Context, store *state.Store, baseURL string, entries []Entry) ([]string, error) {
	st, err := store.State()
	if err != nil {
		return nil, err
	}

	existing := map[string]bool{}
	for _, sub := range st.Subscriptions.ByID {
		if u, err := rss.FeedURL(baseURL, sub); err == nil {
			existing[sub.Subtype+" "+rss.UsernameFromFeedURL(baseURL, u)] = true
		}
	}

	var added []string
	for _, e := range entries {
		username := rss.UsernameFromFeedURL(baseURL, e.URL)
		if username == "" {
			continue
		}
		subtype := model.SubtypeUserEvents
		if e.Group == GroupReceivedActivity {
			subtype = model.SubtypeUserReceivedEvents
		}
		key := subtype + " " + username
		if existing[key] {
			continue
		}
		existing[key] = true

		id, err := store.AddColumn(ctx, state.NewColumn{
			Type:    model.ColumnTypeActivity,
			Subtype: subtype,
			Params:  map[string]any{"username": username},
		})
		if err != nil {
			return added, err
		}
		added = append(added, id)
	}
	return added, nil
}
