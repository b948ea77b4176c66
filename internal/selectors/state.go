package selectors

import (
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/model"
)

// Item is a data item together with its storage id.
type Item struct {
	ID string
	*model.DataItem
}

// Columns returns the columns of a migrated state in display order.
func Columns(s model.State) []*model.Column {
	out := make([]*model.Column, 0, len(s.Columns.AllIDs))
	for _, id := range s.Columns.AllIDs {
		if col := s.Columns.ByID[id]; col != nil {
			out = append(out, col)
		}
	}
	return out
}

// ColumnSubscriptions returns the subscriptions currently backing a column.
func ColumnSubscriptions(s model.State, columnID string) []*model.Subscription {
	col := s.Columns.ByID[columnID]
	if col == nil {
		return nil
	}
	out := make([]*model.Subscription, 0, len(col.SubscriptionIDs))
	for _, sid := range col.SubscriptionIDs {
		if sub := s.Subscriptions.ByID[sid]; sub != nil {
			out = append(out, sub)
		}
	}
	return out
}

// SubscriptionItems returns the items a subscription references, in fetch order.
func SubscriptionItems(s model.State, subscriptionID string) []Item {
	sub := s.Subscriptions.ByID[subscriptionID]
	if sub == nil {
		return nil
	}
	out := make([]Item, 0, len(sub.Data.ItemNodeIDOrIDs))
	for _, id := range sub.Data.ItemNodeIDOrIDs {
		if entry := s.Data.ByID[id]; entry != nil {
			out = append(out, Item{ID: id, DataItem: entry})
		}
	}
	return out
}

// ColumnItems returns the items of every subscription of a column. Items shared by
// several subscriptions appear once, at their first position.
func ColumnItems(s model.State, columnID string) []Item {
	var out []Item
	seen := map[string]bool{}
	for _, sub := range ColumnSubscriptions(s, columnID) {
		for _, it := range SubscriptionItems(s, sub.ID) {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, it)
		}
	}
	return out
}

// SavedItems returns the bookmarked items in the order they were saved.
func SavedItems(s model.State) []Item {
	out := make([]Item, 0, len(s.Data.SavedIDs))
	for _, id := range s.Data.SavedIDs {
		if entry := s.Data.ByID[id]; entry != nil {
			out = append(out, Item{ID: id, DataItem: entry})
		}
	}
	return out
}

// IsRead reports whether an item has been read. Notifications carry their own read
// state; every other item is read when it is in the read index.
func IsRead(s model.State, id string) bool {
	if entry := s.Data.ByID[id]; entry != nil && entry.Type == model.ItemTypeNotification {
		return github.IsRead(entry.Item)
	}
	for _, rid := range s.Data.ReadIDs {
		if rid == id {
			return true
		}
	}
	return false
}
