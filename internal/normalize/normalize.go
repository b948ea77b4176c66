// Package normalize stores fetched items in the normalized data collection.
//
// The data collection is the "data" sub-document of the state:
//
//	byId                 id -> {item, type, subscriptionIds, createdAt, updatedAt}
//	allIds               every id, in first-seen order
//	idsBySubscriptionId  subscription id -> ids
//	idsByType            item type -> ids
//	savedIds, readIds    bookmarked and locally-read ids
//
// byId is authoritative. The other fields are indices kept up to date here.
package normalize

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/model"
)

// localFields are tracked on the client and never sent by the API.
var localFields = []string{
	"last_saved_at",
	"last_unsaved_at",
	"last_read_at",
	"last_unread_at",
	"forceUnreadLocally",
}

// Options control how an incoming payload is merged with a stored one.
type Options struct {
	// KeepLocalState copies local read/saved markers from the stored payload when the
	// incoming payload lacks them. Migration does not set it: the last payload visited
	// replaces earlier ones wholesale.
	KeepLocalState bool
}

// EnsureData returns doc["data"], creating it and every missing index.
func EnsureData(doc document.Object) document.Object {
	data := document.EnsureObject(doc, "data")
	for _, key := range []string{"allIds", "savedIds", "readIds"} {
		if _, ok := data[key].([]any); !ok {
			data[key] = []any{}
		}
	}
	for _, key := range []string{"byId", "idsBySubscriptionId", "idsByType"} {
		document.EnsureObject(data, key)
	}
	return data
}

// Items upserts every item fetched by a subscription and returns the ids of the items
// that could be stored, in fetch order and without duplicates. Items without a derivable
// id are skipped.
func Items(data document.Object, subscriptionID, subscriptionType string, items []any, now string, opts Options) []string {
	itemType := model.ItemTypeForSubscription(subscriptionType)
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, v := range items {
		item, ok := v.(document.Object)
		if !ok {
			continue
		}
		id := Item(data, subscriptionID, itemType, item, now, opts)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Item upserts a single item and returns its id, or "" if no id can be derived.
// The data collection takes ownership of item.
func Item(data document.Object, subscriptionID, itemType string, item document.Object, now string, opts Options) string {
	id := github.NodeIDOrID(item)
	if id == "" {
		return ""
	}

	data["allIds"] = document.AppendUnique(document.Array(data["allIds"]), id)

	byID := document.EnsureObject(data, "byId")
	entry, ok := byID[id].(document.Object)
	if !ok {
		entry = document.Object{
			"createdAt":       now,
			"subscriptionIds": []any{},
		}
		byID[id] = entry
	}
	if opts.KeepLocalState {
		if prev, ok := entry["item"].(document.Object); ok {
			for _, f := range localFields {
				if _, has := item[f]; !has {
					if v, ok := prev[f]; ok {
						item[f] = v
					}
				}
			}
		}
	}
	prevType := document.String(entry["type"])
	entry["item"] = item
	entry["subscriptionIds"] = document.AppendUnique(document.Array(entry["subscriptionIds"]), subscriptionID)
	entry["type"] = itemType
	entry["updatedAt"] = now

	bySub := document.EnsureObject(data, "idsBySubscriptionId")
	bySub[subscriptionID] = document.AppendUnique(document.Array(bySub[subscriptionID]), id)

	byType := document.EnsureObject(data, "idsByType")
	if prevType != "" && prevType != itemType {
		if rest := without(document.Array(byType[prevType]), id); len(rest) > 0 {
			byType[prevType] = rest
		} else {
			delete(byType, prevType)
		}
	}
	byType[itemType] = document.AppendUnique(document.Array(byType[itemType]), id)
	if prevType != "" && itemType == model.ItemTypeNotification {
		if read := document.Array(data["readIds"]); document.ContainsString(read, id) {
			data["readIds"] = without(read, id)
		}
	}

	// Saved ids only ever grow here. An item that stopped being saved keeps its
	// savedIds entry; explicit unsaves go through SetSaved.
	if github.IsSaved(item) {
		delete(item, "saved")
		saved := document.Array(data["savedIds"])
		if !document.ContainsString(saved, id) {
			data["savedIds"] = append(saved, id)
			data["updatedAt"] = now
		}
		if !document.Truthy(item["last_saved_at"]) {
			item["last_saved_at"] = now
		}
	}

	if itemType != model.ItemTypeNotification && github.IsRead(item) {
		read := document.Array(data["readIds"])
		if !document.ContainsString(read, id) {
			data["readIds"] = append(read, id)
			data["updatedAt"] = now
		}
	}

	return id
}

// SetSaved bookmarks or un-bookmarks stored items and keeps savedIds in sync.
// Unknown ids are ignored. It returns the ids that changed.
func SetSaved(data document.Object, ids []string, saved bool, now string) []string {
	byID := document.GetObject(data, "byId")
	list := document.Array(data["savedIds"])
	var changed []string
	for _, id := range ids {
		item := document.GetObject(byID, id, "item")
		if item == nil {
			continue
		}
		if saved {
			item["last_saved_at"] = now
			delete(item, "last_unsaved_at")
			if !document.ContainsString(list, id) {
				list = append(list, id)
			}
		} else {
			item["last_unsaved_at"] = now
			delete(item, "last_saved_at")
			list = without(list, id)
		}
		delete(item, "saved")
		changed = append(changed, id)
	}
	if len(changed) > 0 {
		data["savedIds"] = list
		data["updatedAt"] = now
	}
	return changed
}

// SetRead marks stored items read or unread and keeps readIds in sync. Notifications
// keep their read state on the API and are never added to readIds.
func SetRead(data document.Object, ids []string, read bool, now string) []string {
	byID := document.GetObject(data, "byId")
	list := document.Array(data["readIds"])
	var changed []string
	for _, id := range ids {
		entry := document.GetObject(byID, id)
		item := document.GetObject(entry, "item")
		if item == nil {
			continue
		}
		if read {
			item["last_read_at"] = now
			delete(item, "last_unread_at")
			delete(item, "forceUnreadLocally")
		} else {
			item["last_unread_at"] = now
			delete(item, "last_read_at")
		}
		if document.String(entry["type"]) == model.ItemTypeNotification {
			item["unread"] = !read
		} else if read {
			if !document.ContainsString(list, id) {
				list = append(list, id)
			}
		} else {
			list = without(list, id)
		}
		changed = append(changed, id)
	}
	if len(changed) > 0 {
		data["readIds"] = list
		data["updatedAt"] = now
	}
	return changed
}

func without(arr []any, id string) []any {
	out := make([]any, 0, len(arr))
	for _, e := range arr {
		if e != id {
			out = append(out, e)
		}
	}
	return out
}
