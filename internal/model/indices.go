package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bryan-buckman/feedcolumns/internal/github"
	"go.uber.org/multierr"
)

// ErrInvariant is wrapped by every violation reported by Validate.
var ErrInvariant = errors.New("invariant violated")

// Indices are the derived views of DataState.ByID. Every slice is sorted.
type Indices struct {
	AllIDs              []string
	IDsBySubscriptionID map[string][]string
	IDsByType           map[string][]string
	SavedIDs            []string
	ReadIDs             []string
}

// Rebuild derives every index from ByID alone.
func (d *DataState) Rebuild() Indices {
	ix := Indices{
		AllIDs:              []string{},
		IDsBySubscriptionID: map[string][]string{},
		IDsByType:           map[string][]string{},
		SavedIDs:            []string{},
		ReadIDs:             []string{},
	}
	for id, entry := range d.ByID {
		if entry == nil {
			continue
		}
		ix.AllIDs = append(ix.AllIDs, id)
		ix.IDsByType[entry.Type] = append(ix.IDsByType[entry.Type], id)
		for _, sid := range uniq(entry.SubscriptionIDs) {
			ix.IDsBySubscriptionID[sid] = append(ix.IDsBySubscriptionID[sid], id)
		}
		if github.IsSaved(entry.Item) {
			ix.SavedIDs = append(ix.SavedIDs, id)
		}
		if entry.Type != ItemTypeNotification && github.IsRead(entry.Item) {
			ix.ReadIDs = append(ix.ReadIDs, id)
		}
	}
	sort.Strings(ix.AllIDs)
	sort.Strings(ix.SavedIDs)
	sort.Strings(ix.ReadIDs)
	for _, ids := range ix.IDsByType {
		sort.Strings(ids)
	}
	for _, ids := range ix.IDsBySubscriptionID {
		sort.Strings(ids)
	}
	return ix
}

// Validate checks the referential and derived-index invariants of a migrated state and
// returns every violation found.
//
// SavedIDs is only checked to be a subset of AllIDs: saved ids are never dropped while
// migrating, so an id may remain after its payload stopped being saved.
func Validate(s State) error {
	var err error
	violation := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}

	for _, id := range s.Columns.AllIDs {
		col := s.Columns.ByID[id]
		if col == nil {
			violation("column %q listed in allIds but missing from byId", id)
			continue
		}
		history := map[string]bool{}
		for _, sid := range col.SubscriptionIDsHistory {
			if history[sid] {
				violation("column %q history contains %q twice", id, sid)
			}
			history[sid] = true
		}
		for _, sid := range col.SubscriptionIDs {
			if !history[sid] {
				violation("column %q subscription %q missing from history", id, sid)
			}
		}
	}

	for sid, sub := range s.Subscriptions.ByID {
		if sub == nil {
			continue
		}
		for _, id := range sub.Data.ItemNodeIDOrIDs {
			if _, ok := s.Data.ByID[id]; !ok {
				violation("subscription %q references unknown item %q", sid, id)
			}
		}
	}

	all := toSet(s.Data.AllIDs)
	for id := range s.Data.ByID {
		if !all[id] {
			violation("item %q missing from allIds", id)
		}
	}
	for id := range all {
		if _, ok := s.Data.ByID[id]; !ok {
			violation("allIds entry %q missing from byId", id)
		}
	}

	rebuilt := s.Data.Rebuild()
	for typ, ids := range s.Data.IDsByType {
		if !sameSet(ids, rebuilt.IDsByType[typ]) {
			violation("idsByType[%s] does not match item types", typ)
		}
	}
	for typ, ids := range rebuilt.IDsByType {
		if _, ok := s.Data.IDsByType[typ]; !ok && len(ids) > 0 {
			violation("idsByType[%s] missing", typ)
		}
	}
	for _, id := range s.Data.SavedIDs {
		if !all[id] {
			violation("saved id %q not in allIds", id)
		}
	}
	for _, id := range s.Data.ReadIDs {
		if !all[id] {
			violation("read id %q not in allIds", id)
			continue
		}
		if entry := s.Data.ByID[id]; entry != nil && entry.Type == ItemTypeNotification {
			violation("notification %q tracked in readIds", id)
		}
	}

	return err
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func sameSet(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if !bs[id] {
			return false
		}
	}
	return true
}
