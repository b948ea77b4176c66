// Package selectors holds read-only projections over the state.
//
// The functions in this file work on the untyped document and tolerate any legacy
// shape; they are what migration steps use. The typed projections used by the running
// application live in state.go.
package selectors

import (
	"github.com/bryan-buckman/feedcolumns/internal/document"
)

// orderedIDs lists the keys of collection.byId: first in collection.allIds order, then the
// ids missing from allIds in sorted order. The result is deterministic for a given input.
func orderedIDs(collection document.Object) []string {
	byID := document.GetObject(collection, "byId")
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	seen := make(map[string]bool, len(byID))
	for _, id := range document.Strings(collection["allIds"]) {
		if _, ok := byID[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, id := range document.SortedKeys(byID) {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func objects(collection document.Object, ids []string) []document.Object {
	byID := document.GetObject(collection, "byId")
	out := make([]document.Object, 0, len(ids))
	for _, id := range ids {
		if obj, ok := byID[id].(document.Object); ok {
			out = append(out, obj)
		}
	}
	return out
}

// ColumnIDs returns the ids of every column in display order.
func ColumnIDs(doc document.Object) []string {
	return orderedIDs(document.GetObject(doc, "columns"))
}

// ColumnsArr returns every column object in display order. Null entries are skipped.
// The returned objects alias doc.
func ColumnsArr(doc document.Object) []document.Object {
	columns := document.GetObject(doc, "columns")
	return objects(columns, orderedIDs(columns))
}

// SubscriptionIDs returns the ids of every subscription in visitation order.
func SubscriptionIDs(doc document.Object) []string {
	return orderedIDs(document.GetObject(doc, "subscriptions"))
}

// AllSubscriptionsArr returns every subscription object in visitation order.
// The returned objects alias doc.
func AllSubscriptionsArr(doc document.Object) []document.Object {
	subscriptions := document.GetObject(doc, "subscriptions")
	return objects(subscriptions, orderedIDs(subscriptions))
}

// FilterRecordHasAnyForcedValue reports whether a filter group has at least one leaf
// explicitly forced to true or false. Absent groups and non-boolean leaves are not forced.
func FilterRecordHasAnyForcedValue(record any) bool {
	m, ok := record.(document.Object)
	if !ok {
		return false
	}
	for _, v := range m {
		if _, ok := document.Bool(v); ok {
			return true
		}
	}
	return false
}
