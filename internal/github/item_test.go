package github

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDOrID(t *testing.T) {
	tests := []struct {
		name string
		item document.Object
		want string
	}{
		{"node id wins", document.Object{"node_id": "MDU6SXNzdWUx", "id": json.Number("1")}, "MDU6SXNzdWUx"},
		{"numeric id", document.Object{"id": json.Number("8123456789")}, "8123456789"},
		{"float id", document.Object{"id": 42.0}, "42"},
		{"string id", document.Object{"node_id": "", "id": "abc"}, "abc"},
		{"no id", document.Object{"title": "x"}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NodeIDOrID(tt.item))
		})
	}
}

func TestIsSaved(t *testing.T) {
	assert.True(t, IsSaved(document.Object{"saved": true}))
	assert.True(t, IsSaved(document.Object{"last_saved_at": "2019-01-02T00:00:00.000Z"}))
	assert.False(t, IsSaved(document.Object{
		"last_saved_at":   "2019-01-02T00:00:00.000Z",
		"last_unsaved_at": "2019-01-03T00:00:00.000Z",
	}))
	assert.False(t, IsSaved(document.Object{"saved": false}))
	assert.False(t, IsSaved(nil))
}

func TestIsRead(t *testing.T) {
	assert.True(t, IsRead(document.Object{"last_read_at": "2019-01-02T00:00:00.000Z"}))
	assert.False(t, IsRead(document.Object{
		"last_read_at":   "2019-01-02T00:00:00.000Z",
		"last_unread_at": "2019-01-02T00:00:01.000Z",
	}))
	assert.True(t, IsRead(document.Object{"unread": false}))
	assert.False(t, IsRead(document.Object{"unread": true}))
	assert.False(t, IsRead(document.Object{"unread": false, "forceUnreadLocally": true}))
	assert.False(t, IsRead(document.Object{}))
}

func TestOwnerAndRepo(t *testing.T) {
	owner, repo := OwnerAndRepo("acme/widgets")
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	owner, repo = OwnerAndRepo("")
	assert.Empty(t, owner)
	assert.Empty(t, repo)

	owner, repo = OwnerAndRepo("acme")
	assert.Equal(t, "acme", owner)
	assert.Empty(t, repo)
}

func TestRemoveUselessURLs(t *testing.T) {
	item := document.Object{
		"id":           json.Number("1"),
		"url":          "https://api.github.com/repos/acme/widgets/issues/1",
		"html_url":     "https://github.com/acme/widgets/issues/1",
		"comments_url": "https://api.github.com/repos/acme/widgets/issues/1/comments",
		"user": document.Object{
			"login":         "octocat",
			"avatar_url":    "https://avatars.githubusercontent.com/u/1",
			"followers_url": "https://api.github.com/users/octocat/followers",
		},
		"labels": []any{document.Object{"name": "bug", "labels_url": "x"}},
	}

	got := RemoveUselessURLs(item).(document.Object)

	assert.NotContains(t, got, "comments_url")
	assert.Contains(t, got, "url")
	assert.Contains(t, got, "html_url")
	assert.Equal(t, document.Object{"login": "octocat", "avatar_url": "https://avatars.githubusercontent.com/u/1"}, got["user"])
	assert.Equal(t, []any{document.Object{"name": "bug"}}, got["labels"])
	assert.Contains(t, item, "comments_url", "input must not be modified")
}

func TestLookupEventMetadata(t *testing.T) {
	md, err := LookupEventMetadata("WatchEvent")
	require.NoError(t, err)
	assert.Equal(t, ActionStarred, md.Action)

	md, err = LookupEventMetadata("IssuesEvent")
	require.NoError(t, err)
	assert.Empty(t, md.Action)

	_, err = LookupEventMetadata("NotAnEvent")
	assert.True(t, errors.Is(err, ErrUnknownEventType))
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(time.Date(2019, 3, 4, 5, 6, 7, 8_000_000, time.FixedZone("x", 3600)))
	assert.Equal(t, "2019-03-04T04:06:07.008Z", ts)
}
