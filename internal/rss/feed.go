package rss

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/mmcdole/gofeed"
)

// DefaultBaseURL serves the public activity feeds.
const DefaultBaseURL = "https://github.com"

// ErrUnsupportedSubscription is returned for subscriptions that have no public feed.
var ErrUnsupportedSubscription = errors.New("subscription has no activity feed")

// FeedURL returns the Atom feed backing a subscription. Only user activity
// subscriptions have one.
func FeedURL(baseURL string, sub *model.Subscription) (string, error) {
	if sub == nil || sub.Type != model.ColumnTypeActivity {
		return "", ErrUnsupportedSubscription
	}
	switch sub.Subtype {
	case model.SubtypeUserEvents, model.SubtypeUserReceivedEvents:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSubscription, sub.Subtype)
	}
	username, _ := sub.Params["username"].(string)
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: missing username", ErrUnsupportedSubscription)
	}
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(username) + ".atom", nil
}

// UsernameFromFeedURL is the inverse of FeedURL for user feeds. It returns "" when
// feedURL is not a user activity feed under baseURL.
func UsernameFromFeedURL(baseURL, feedURL string) string {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(feedURL, prefix) || !strings.HasSuffix(feedURL, ".atom") {
		return ""
	}
	name := strings.TrimSuffix(strings.TrimPrefix(feedURL, prefix), ".atom")
	if name == "" || strings.Contains(name, "/") {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// entryToEvent converts a feed entry into an event payload. Entry ids look like
// "tag:github.com,2008:WatchEvent/9201"; entries without an id are dropped.
func entryToEvent(item *gofeed.Item) document.Object {
	if item == nil || item.GUID == "" {
		return nil
	}

	eventType, id := "Event", item.GUID
	if i := strings.LastIndex(item.GUID, ":"); i >= 0 {
		if typ, num, ok := strings.Cut(item.GUID[i+1:], "/"); ok && typ != "" && num != "" {
			eventType, id = typ, num
		}
	}

	event := document.Object{
		"id":       id,
		"node_id":  item.GUID,
		"type":     eventType,
		"title":    item.Title,
		"html_url": item.Link,
	}

	switch {
	case item.PublishedParsed != nil:
		event["created_at"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		event["created_at"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	actor := document.Object{}
	if item.Author != nil && item.Author.Name != "" {
		actor["login"] = item.Author.Name
	}
	if avatar := thumbnailURL(item); avatar != "" {
		actor["avatar_url"] = avatar
	}
	if len(actor) > 0 {
		event["actor"] = actor
	}

	if repo := repoFromLink(item.Link); repo != "" {
		event["repo"] = document.Object{"name": repo}
	}
	return event
}

func thumbnailURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, ext := range item.Extensions["media"]["thumbnail"] {
		if u := ext.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}

// repoFromLink returns "owner/repo" for links into a repository.
func repoFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
