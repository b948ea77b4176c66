package selectors_test

import (
	"testing"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"github.com/stretchr/testify/assert"
)

func TestColumnsArrOrder(t *testing.T) {
	doc := document.Object{
		"columns": document.Object{
			"allIds": []any{"b", "missing", "a", "b"},
			"byId": document.Object{
				"a": document.Object{"id": "a"},
				"b": document.Object{"id": "b"},
				"z": document.Object{"id": "z"},
				"y": document.Object{"id": "y"},
				"n": nil,
			},
		},
	}

	assert.Equal(t, []string{"b", "a", "n", "y", "z"}, selectors.ColumnIDs(doc))

	var got []string
	for _, c := range selectors.ColumnsArr(doc) {
		got = append(got, c["id"].(string))
	}
	assert.Equal(t, []string{"b", "a", "y", "z"}, got, "null columns are skipped")
}

func TestSelectorsTolerateAbsentCollections(t *testing.T) {
	doc := document.Object{}
	assert.Empty(t, selectors.ColumnsArr(doc))
	assert.Empty(t, selectors.AllSubscriptionsArr(doc))
	assert.Empty(t, selectors.SubscriptionIDs(document.Object{"subscriptions": "bogus"}))
}

func TestFilterRecordHasAnyForcedValue(t *testing.T) {
	assert.False(t, selectors.FilterRecordHasAnyForcedValue(nil))
	assert.False(t, selectors.FilterRecordHasAnyForcedValue(document.Object{}))
	assert.False(t, selectors.FilterRecordHasAnyForcedValue(document.Object{"PushEvent": nil}))
	assert.False(t, selectors.FilterRecordHasAnyForcedValue(document.Object{"nested": document.Object{"x": true}}))
	assert.True(t, selectors.FilterRecordHasAnyForcedValue(document.Object{"PushEvent": false}))
	assert.True(t, selectors.FilterRecordHasAnyForcedValue(document.Object{"a": nil, "b": true}))
}

func TestColumnItemsDeduplicates(t *testing.T) {
	s := model.State{
		Columns: model.ColumnsState{
			AllIDs: []string{"c1"},
			ByID:   map[string]*model.Column{"c1": {ID: "c1", SubscriptionIDs: []string{"s1", "s2"}}},
		},
		Subscriptions: model.SubscriptionsState{
			ByID: map[string]*model.Subscription{
				"s1": {ID: "s1", Data: model.SubscriptionData{ItemNodeIDOrIDs: []string{"i1", "i2"}}},
				"s2": {ID: "s2", Data: model.SubscriptionData{ItemNodeIDOrIDs: []string{"i2", "i3", "gone"}}},
			},
		},
		Data: model.DataState{
			ByID: map[string]*model.DataItem{
				"i1": {Type: model.ItemTypeEvent},
				"i2": {Type: model.ItemTypeEvent},
				"i3": {Type: model.ItemTypeEvent},
			},
			ReadIDs: []string{"i3"},
		},
	}

	var ids []string
	for _, it := range selectors.ColumnItems(s, "c1") {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"i1", "i2", "i3"}, ids)
	assert.Empty(t, selectors.ColumnItems(s, "nope"))
	assert.True(t, selectors.IsRead(s, "i3"))
	assert.False(t, selectors.IsRead(s, "i1"))
}

func TestIsReadNotificationUsesItemState(t *testing.T) {
	s := model.State{Data: model.DataState{
		ByID: map[string]*model.DataItem{
			"n1": {Type: model.ItemTypeNotification, Item: map[string]any{"unread": false}},
			"n2": {Type: model.ItemTypeNotification, Item: map[string]any{"unread": true}},
			"e1": {Type: model.ItemTypeEvent, Item: map[string]any{"last_read_at": "2019-01-01T00:00:00.000Z"}},
		},
	}}
	assert.True(t, selectors.IsRead(s, "n1"))
	assert.False(t, selectors.IsRead(s, "n2"))
	assert.False(t, selectors.IsRead(s, "e1"), "events are read through readIds")
}
