package state

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/normalize"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"go.uber.org/zap"
)

// ApplyFetchResult records the outcome of fetching a subscription. On success the items
// are stored and become the subscription's item list. On failure the previous items are
// kept and the error is recorded.
func (s *Store) ApplyFetchResult(ctx context.Context, subscriptionID string, items []document.Object, fetchErr error) error {
	return s.mutate(ctx, func(doc document.Object) error {
		sub := document.GetObject(doc, "subscriptions", "byId", subscriptionID)
		if sub == nil {
			return fmt.Errorf("%w: %s", ErrUnknownSubscription, subscriptionID)
		}
		now := s.timestamp()
		subData := document.EnsureObject(sub, "data")
		subData["lastFetchRequestAt"] = now

		if fetchErr != nil {
			msg := fetchErr.Error()
			if len(msg) > maxErrorMessageLen {
				cut := maxErrorMessageLen
				for cut > 0 && !utf8.RuneStart(msg[cut]) {
					cut--
				}
				msg = msg[:cut]
			}
			subData["loadState"] = model.LoadStateError
			subData["errorMessage"] = msg
			return nil
		}

		raw := make([]any, len(items))
		for i, item := range items {
			raw[i] = document.CloneObject(item)
		}
		ids := normalize.Items(normalize.EnsureData(doc), subscriptionID, document.String(sub["type"]), raw, now,
			normalize.Options{KeepLocalState: true})

		subData["itemNodeIdOrIds"] = document.StringArray(ids)
		subData["loadState"] = model.LoadStateLoaded
		subData["lastFetchSuccessAt"] = now
		subData["canFetchMore"] = false
		delete(subData, "errorMessage")

		s.logger.Debug("Stored fetch result",
			zap.String("subscription_id", subscriptionID),
			zap.Int("item_count", len(ids)))
		return nil
	})
}

// SetLoading marks a subscription as being fetched.
func (s *Store) SetLoading(ctx context.Context, subscriptionID string) error {
	return s.mutate(ctx, func(doc document.Object) error {
		sub := document.GetObject(doc, "subscriptions", "byId", subscriptionID)
		if sub == nil {
			return fmt.Errorf("%w: %s", ErrUnknownSubscription, subscriptionID)
		}
		subData := document.EnsureObject(sub, "data")
		if len(document.Array(subData["itemNodeIdOrIds"])) == 0 {
			subData["loadState"] = model.LoadStateLoadingFirst
		} else {
			subData["loadState"] = model.LoadStateLoading
		}
		return nil
	})
}

// SetSaved bookmarks or un-bookmarks items and returns the ids that were found.
func (s *Store) SetSaved(ctx context.Context, ids []string, saved bool) ([]string, error) {
	var changed []string
	err := s.mutate(ctx, func(doc document.Object) error {
		changed = normalize.SetSaved(normalize.EnsureData(doc), ids, saved, s.timestamp())
		return nil
	})
	return changed, err
}

// SetRead marks items read or unread and returns the ids that were found.
func (s *Store) SetRead(ctx context.Context, ids []string, read bool) ([]string, error) {
	var changed []string
	err := s.mutate(ctx, func(doc document.Object) error {
		changed = normalize.SetRead(normalize.EnsureData(doc), ids, read, s.timestamp())
		return nil
	})
	return changed, err
}

// NewColumn describes a column to create together with its single subscription.
type NewColumn struct {
	Type    string
	Subtype string
	Params  map[string]any
	Filters map[string]any
}

// AddColumn creates a column backed by a new subscription and returns the column id.
func (s *Store) AddColumn(ctx context.Context, c NewColumn) (string, error) {
	var columnID string
	err := s.mutate(ctx, func(doc document.Object) error {
		now := s.timestamp()
		subID := s.newID()
		columnID = s.newID()

		sub, err := toObject(model.Subscription{
			ID:        subID,
			Type:      c.Type,
			Subtype:   c.Subtype,
			Params:    c.Params,
			Data:      model.SubscriptionData{LoadState: model.LoadStateNotLoaded},
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		col, err := toObject(model.Column{
			ID:                     columnID,
			Type:                   c.Type,
			SubscriptionIDs:        []string{subID},
			SubscriptionIDsHistory: []string{subID},
			Filters:                c.Filters,
			CreatedAt:              now,
			UpdatedAt:              now,
		})
		if err != nil {
			return err
		}

		subscriptions := document.EnsureObject(doc, "subscriptions")
		document.EnsureObject(subscriptions, "byId")[subID] = sub
		subscriptions["allIds"] = document.AppendUnique(document.Array(subscriptions["allIds"]), subID)

		columns := document.EnsureObject(doc, "columns")
		document.EnsureObject(columns, "byId")[columnID] = col
		columns["allIds"] = document.AppendUnique(document.Array(columns["allIds"]), columnID)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("Added column", zap.String("column_id", columnID), zap.String("type", c.Type))
	return columnID, nil
}

// RemoveColumn deletes a column and the subscriptions no other column uses. Stored
// items are kept but no longer reference the removed subscriptions.
func (s *Store) RemoveColumn(ctx context.Context, columnID string) error {
	return s.mutate(ctx, func(doc document.Object) error {
		byID := document.GetObject(doc, "columns", "byId")
		col, ok := byID[columnID].(document.Object)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
		}
		delete(byID, columnID)
		columns := document.GetObject(doc, "columns")
		columns["allIds"] = document.StringArray(without(document.Strings(columns["allIds"]), columnID))

		inUse := map[string]bool{}
		for _, other := range selectors.ColumnsArr(doc) {
			for _, id := range document.Strings(other["subscriptionIds"]) {
				inUse[id] = true
			}
		}

		subscriptions := document.GetObject(doc, "subscriptions")
		subByID := document.GetObject(subscriptions, "byId")
		bySub := document.GetObject(doc, "data", "idsBySubscriptionId")
		allSubs := document.Strings(subscriptions["allIds"])
		for _, id := range document.Strings(col["subscriptionIds"]) {
			if inUse[id] {
				continue
			}
			delete(subByID, id)
			for _, itemID := range document.Strings(bySub[id]) {
				if entry := document.GetObject(doc, "data", "byId", itemID); entry != nil {
					entry["subscriptionIds"] = document.StringArray(without(document.Strings(entry["subscriptionIds"]), id))
				}
			}
			delete(bySub, id)
			allSubs = without(allSubs, id)
		}
		if subscriptions != nil {
			subscriptions["allIds"] = document.StringArray(allSubs)
		}
		return nil
	})
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, e := range ids {
		if e != id {
			out = append(out, e)
		}
	}
	return out
}

// toObject converts a model value to its document form.
func toObject(v any) (document.Object, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return document.Parse(b)
}
