// Package github holds helpers that interpret raw payloads fetched from the GitHub API.
package github

import (
	"strings"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
)

// TimestampLayout matches the ISO-8601 timestamps written by the client (millisecond
// precision, UTC, trailing Z). Timestamps in this layout sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NodeIDOrID derives the stable storage id of an item: the global node id when present,
// otherwise the numeric or string id. It returns "" when no id can be derived.
func NodeIDOrID(item document.Object) string {
	if item == nil {
		return ""
	}
	if id := document.String(item["node_id"]); id != "" {
		return id
	}
	return document.IDString(item["id"])
}

// IsSaved reports whether the item is bookmarked, either through the legacy boolean
// flag or through the save/unsave timestamps.
func IsSaved(item document.Object) bool {
	if item == nil {
		return false
	}
	if document.Truthy(item["saved"]) {
		return true
	}
	return laterThan(document.String(item["last_saved_at"]), document.String(item["last_unsaved_at"]))
}

// IsRead reports whether the item has been marked read locally.
func IsRead(item document.Object) bool {
	if item == nil || document.Truthy(item["forceUnreadLocally"]) {
		return false
	}
	if readAt := document.String(item["last_read_at"]); readAt != "" {
		return laterThan(readAt, document.String(item["last_unread_at"]))
	}
	if unread, ok := document.Bool(item["unread"]); ok {
		return !unread
	}
	return false
}

func laterThan(at, other string) bool {
	if at == "" {
		return false
	}
	return other == "" || at > other
}

// OwnerAndRepo splits "owner/repo". Missing parts are returned as "".
func OwnerAndRepo(fullName string) (owner, repo string) {
	parts := strings.Split(fullName, "/")
	owner = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		repo = strings.TrimSpace(parts[1])
	}
	return owner, repo
}

var keptURLFields = map[string]bool{
	"url":                true,
	"html_url":           true,
	"avatar_url":         true,
	"latest_comment_url": true,
}

// RemoveUselessURLs returns a copy of v with every "*_url" API navigation field removed,
// at any depth. Fields the client renders or follows (url, html_url, avatar_url,
// latest_comment_url) are kept.
func RemoveUselessURLs(v any) any {
	switch t := v.(type) {
	case document.Object:
		out := make(document.Object, len(t))
		for k, e := range t {
			if strings.HasSuffix(k, "_url") && !keptURLFields[k] {
				continue
			}
			out[k] = RemoveUselessURLs(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = RemoveUselessURLs(e)
		}
		return out
	default:
		return v
	}
}
