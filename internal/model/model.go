// Package model defines the canonical shape of the persisted state once it has been
// migrated to the latest schema version.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/bryan-buckman/feedcolumns/internal/document"
)

// Column types.
const (
	ColumnTypeActivity      = "activity"
	ColumnTypeNotifications = "notifications"
	ColumnTypeIssueOrPR     = "issue_or_pr"
)

// Subscription subtypes used by the store.
const (
	SubtypeUserEvents         = "USER_EVENTS"
	SubtypeUserReceivedEvents = "USER_RECEIVED_EVENTS"
	SubtypeRepoEvents         = "REPO_EVENTS"
	SubtypeOrgPublicEvents    = "ORG_PUBLIC_EVENTS"
)

// Data item types.
const (
	ItemTypeEvent        = "event"
	ItemTypeNotification = "notification"
	ItemTypeIssueOrPR    = "issue_or_pr"
)

// Load states of a subscription fetch.
const (
	LoadStateNotLoaded    = "not_loaded"
	LoadStateLoading      = "loading"
	LoadStateLoadingFirst = "loading_first"
	LoadStateLoadingMore  = "loading_more"
	LoadStateError        = "error"
	LoadStateLoaded       = "loaded"
)

// App view modes.
const (
	AppViewModeSingleColumn = "single-column"
	AppViewModeMultiColumn  = "multi-column"
)

// ItemTypeForSubscription maps a subscription type to the type of the items it fetches.
func ItemTypeForSubscription(subscriptionType string) string {
	switch subscriptionType {
	case ColumnTypeActivity:
		return ItemTypeEvent
	case ColumnTypeNotifications:
		return ItemTypeNotification
	default:
		return subscriptionType
	}
}

// Column is a user-configured view backed by one or more subscriptions.
type Column struct {
	ID                     string         `json:"id"`
	Type                   string         `json:"type"`
	SubscriptionIDs        []string       `json:"subscriptionIds"`
	SubscriptionIDsHistory []string       `json:"subscriptionIdsHistory"`
	Filters                map[string]any `json:"filters,omitempty"`
	CreatedAt              string         `json:"createdAt,omitempty"`
	UpdatedAt              string         `json:"updatedAt,omitempty"`
}

// ColumnsState holds every column in display order.
type ColumnsState struct {
	AllIDs []string           `json:"allIds"`
	ByID   map[string]*Column `json:"byId"`
}

// SubscriptionData is the fetch state of a subscription.
type SubscriptionData struct {
	LoadState          string   `json:"loadState,omitempty"`
	ErrorMessage       string   `json:"errorMessage,omitempty"`
	CanFetchMore       bool     `json:"canFetchMore,omitempty"`
	LastFetchRequestAt string   `json:"lastFetchRequestAt,omitempty"`
	LastFetchSuccessAt string   `json:"lastFetchSuccessAt,omitempty"`
	ItemNodeIDOrIDs    []string `json:"itemNodeIdOrIds,omitempty"`
}

// Subscription is a fetch definition and its fetch state.
type Subscription struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Subtype   string           `json:"subtype,omitempty"`
	Params    map[string]any   `json:"params,omitempty"`
	Data      SubscriptionData `json:"data"`
	CreatedAt string           `json:"createdAt,omitempty"`
	UpdatedAt string           `json:"updatedAt,omitempty"`
}

// SubscriptionsState holds every subscription.
type SubscriptionsState struct {
	AllIDs []string                 `json:"allIds"`
	ByID   map[string]*Subscription `json:"byId"`
}

// DataItem is the single stored copy of a fetched entity.
type DataItem struct {
	Item            map[string]any `json:"item"`
	Type            string         `json:"type"`
	SubscriptionIDs []string       `json:"subscriptionIds"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
}

// DataState is the normalized item collection and its derived indices.
// ByID is authoritative; every other field can be rebuilt from it.
type DataState struct {
	AllIDs              []string             `json:"allIds"`
	ByID                map[string]*DataItem `json:"byId"`
	IDsBySubscriptionID map[string][]string  `json:"idsBySubscriptionId"`
	IDsByType           map[string][]string  `json:"idsByType"`
	SavedIDs            []string             `json:"savedIds"`
	ReadIDs             []string             `json:"readIds"`
	UpdatedAt           string               `json:"updatedAt,omitempty"`
}

// AuthUser is the local account record.
type AuthUser struct {
	ID          string `json:"_id"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	LastLoginAt string `json:"lastLoginAt,omitempty"`
}

// Auth is the session sub-document.
type Auth struct {
	AppToken          *string   `json:"appToken"`
	Error             any       `json:"error"`
	IsDeletingAccount bool      `json:"isDeletingAccount"`
	IsLoggingIn       bool      `json:"isLoggingIn"`
	User              *AuthUser `json:"user"`
}

// OAuth holds the provider token.
type OAuth struct {
	Login          string   `json:"login"`
	Scope          []string `json:"scope,omitempty"`
	Token          string   `json:"token"`
	TokenCreatedAt string   `json:"tokenCreatedAt,omitempty"`
	TokenType      string   `json:"tokenType,omitempty"`
}

// GitHubAuth is the provider-specific auth sub-document.
type GitHubAuth struct {
	OAuth *OAuth         `json:"oauth,omitempty"`
	User  map[string]any `json:"user,omitempty"`
}

// Installations is the fetch state of provider app installations.
type Installations struct {
	LastFetchRequestAt string `json:"lastFetchRequestAt,omitempty"`
	LastFetchSuccessAt string `json:"lastFetchSuccessAt,omitempty"`
}

// GitHub groups provider-specific state.
type GitHub struct {
	API struct {
		Headers map[string]any `json:"headers,omitempty"`
	} `json:"api"`
	Auth          GitHubAuth    `json:"auth"`
	Installations Installations `json:"installations"`
}

// Counters holds usage counters.
type Counters struct {
	LoginSuccess int `json:"loginSuccess"`
}

// Config holds user preferences.
type Config struct {
	AppViewMode string `json:"appViewMode,omitempty"`
	Theme       any    `json:"theme,omitempty"`
}

// Persist carries the schema version tag.
type Persist struct {
	Version int `json:"version"`
}

// State is the typed view of a migrated document.
type State struct {
	Persist       Persist            `json:"_persist"`
	Auth          Auth               `json:"auth"`
	Columns       ColumnsState       `json:"columns"`
	Subscriptions SubscriptionsState `json:"subscriptions"`
	Data          DataState          `json:"data"`
	Counters      Counters           `json:"counters"`
	Config        Config             `json:"config"`
	GitHub        GitHub             `json:"github"`
}

// FromDocument decodes a migrated document into a State.
func FromDocument(doc document.Object) (State, error) {
	var s State
	b, err := document.Encode(doc)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

// NewDocument returns the empty document written at first launch.
func NewDocument(version int) document.Object {
	doc := document.Object{
		"auth": document.Object{
			"appToken":          nil,
			"error":             nil,
			"isDeletingAccount": false,
			"isLoggingIn":       false,
			"user":              nil,
		},
		"columns":       document.Object{"allIds": []any{}, "byId": document.Object{}},
		"subscriptions": document.Object{"allIds": []any{}, "byId": document.Object{}},
		"data": document.Object{
			"allIds":              []any{},
			"byId":                document.Object{},
			"idsBySubscriptionId": document.Object{},
			"idsByType":           document.Object{},
			"savedIds":            []any{},
			"readIds":             []any{},
		},
		"counters": document.Object{"loginSuccess": 0},
		"config":   document.Object{"appViewMode": AppViewModeMultiColumn},
		"github": document.Object{
			"api":           document.Object{},
			"auth":          document.Object{},
			"installations": document.Object{},
		},
	}
	document.SetVersion(doc, version)
	return doc
}
