package github

import (
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned for event types the client has no metadata for.
var ErrUnknownEventType = errors.New("unknown event type")

// Event actions used by the activity filters.
const (
	ActionAdded      = "added"
	ActionCommented  = "commented"
	ActionCreated    = "created"
	ActionDeleted    = "deleted"
	ActionForked     = "forked"
	ActionMadePublic = "made_public"
	ActionPushed     = "pushed"
	ActionReleased   = "released"
	ActionReviewed   = "reviewed"
	ActionStarred    = "starred"
	ActionUpdated    = "updated"
)

// EventMetadata describes how an event type is presented.
type EventMetadata struct {
	Action      string
	SubjectType string
}

// Event types whose action depends on the payload map to an empty Action.
var eventMetadata = map[string]EventMetadata{
	"CommitCommentEvent":            {ActionCommented, "Commit"},
	"CreateEvent":                   {ActionCreated, "Repository"},
	"DeleteEvent":                   {ActionDeleted, "Branch"},
	"ForkEvent":                     {ActionForked, "Repository"},
	"GollumEvent":                   {ActionUpdated, "Wiki"},
	"IssueCommentEvent":             {ActionCommented, "Issue"},
	"IssuesEvent":                   {"", "Issue"},
	"MemberEvent":                   {ActionAdded, "User"},
	"PublicEvent":                   {ActionMadePublic, "Repository"},
	"PullRequestEvent":              {"", "PullRequest"},
	"PullRequestReviewEvent":        {ActionReviewed, "PullRequest"},
	"PullRequestReviewCommentEvent": {ActionCommented, "PullRequest"},
	"PushEvent":                     {ActionPushed, "Commit"},
	"ReleaseEvent":                  {ActionReleased, "Release"},
	"WatchEvent":                    {ActionStarred, "Repository"},
}

// LookupEventMetadata returns the metadata of an event type with an empty payload.
func LookupEventMetadata(eventType string) (EventMetadata, error) {
	md, ok := eventMetadata[eventType]
	if !ok {
		return EventMetadata{}, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
	return md, nil
}
