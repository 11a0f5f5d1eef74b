package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRelated(t *testing.T) {
	assert.Equal(t, General, NewRelated("", 0))
	assert.Equal(t, General, NewRelated("", 7))
	assert.Equal(t, General, NewRelated(RelatedGeneral, 0))
	assert.Equal(t, General, NewRelated(RelatedGeneral, 3))
	assert.Equal(t, Related{Kind: RelatedHousing, ID: 1}, NewRelated(RelatedHousing, 1))
}

func TestRelatedString(t *testing.T) {
	assert.Equal(t, "general_0", General.String())
	assert.Equal(t, "housing_1", NewRelated(RelatedHousing, 1).String())
	assert.Equal(t, "buddy_0", Related{Kind: RelatedBuddy}.String())
}

func TestParseReadScope(t *testing.T) {
	tests := []struct {
		name    string
		rawType string
		rawID   string
		kind    ScopeKind
		typ     string
		id      int64
	}{
		{name: "both empty", kind: ScopeGeneral},
		{name: "general literal", rawType: "general", rawID: "0", kind: ScopeGeneral},
		{name: "general type without id", rawType: "general", kind: ScopeGeneral},
		{name: "zero id without type", rawID: "0", kind: ScopeGeneral},
		{name: "listing", rawType: "housing", rawID: "1", kind: ScopeRelated, typ: "housing", id: 1},
		{name: "negative id", rawType: "housing", rawID: "-1", kind: ScopeRelated, typ: "housing", id: -1},
		{name: "trailing garbage", rawType: "housing", rawID: "7abc", kind: ScopeRelated, typ: "housing", id: 7},
		{name: "signed and padded", rawType: "buddy", rawID: " +12", kind: ScopeRelated, typ: "buddy", id: 12},
		{name: "padded zero", rawType: "housing", rawID: "00", kind: ScopeRelated, typ: "housing"},
		{name: "listing without id", rawType: "housing", kind: ScopeAll},
		{name: "listing with zero id", rawType: "housing", rawID: "0", kind: ScopeAll},
		{name: "id without type", rawID: "5", kind: ScopeAll},
		{name: "general type with id", rawType: "general", rawID: "5", kind: ScopeAll},
		{name: "non numeric id", rawType: "housing", rawID: "abc", kind: ScopeAll},
		{name: "sign only", rawType: "housing", rawID: "-", kind: ScopeAll},
		{name: "overflow", rawType: "housing", rawID: "99999999999999999999", kind: ScopeAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := ParseReadScope(tt.rawType, tt.rawID)
			assert.Equal(t, tt.kind, scope.Kind)
			assert.Equal(t, tt.typ, scope.Type)
			assert.Equal(t, tt.id, scope.ID)
			assert.Equal(t, tt.rawType, scope.RawType)
			assert.Equal(t, tt.rawID, scope.RawID)
			assert.Equal(t, tt.kind == ScopeAll, scope.Fallback())
		})
	}
}

func TestRelatedScope(t *testing.T) {
	assert.Equal(t, ScopeGeneral, RelatedScope(General).Kind)

	scope := RelatedScope(NewRelated(RelatedRoommate, 4))
	assert.Equal(t, ScopeRelated, scope.Kind)
	assert.Equal(t, RelatedRoommate, scope.Type)
	assert.Equal(t, int64(4), scope.ID)
}

func TestReadScopeMatches(t *testing.T) {
	housing := "housing"
	empty := ""
	one, two := uint64(1), uint64(2)

	general := Message{ID: 1}
	legacy := Message{ID: 2, RelatedType: &empty}
	listing := Message{ID: 3, RelatedType: &housing, RelatedID: &one}
	other := Message{ID: 4, RelatedType: &housing, RelatedID: &two}

	scope := GeneralScope()
	assert.True(t, scope.Matches(general))
	assert.True(t, scope.Matches(legacy))
	assert.False(t, scope.Matches(listing))

	scope = RelatedScope(NewRelated("housing", 1))
	assert.False(t, scope.Matches(general))
	assert.True(t, scope.Matches(listing))
	assert.False(t, scope.Matches(other))

	scope = ParseReadScope("housing", "-1")
	for _, m := range []Message{general, legacy, listing, other} {
		assert.False(t, scope.Matches(m))
	}

	scope = ParseReadScope("housing", "")
	for _, m := range []Message{general, legacy, listing, other} {
		assert.True(t, scope.Matches(m))
	}
}

func TestConversationKey(t *testing.T) {
	a := NewConversationKey(9, 4, General)
	b := NewConversationKey(4, 9, General)

	assert.Equal(t, a, b)
	assert.Equal(t, "4_9_general_0", a.String())
	assert.Equal(t, "4_9_housing_1", NewConversationKey(9, 4, NewRelated("housing", 1)).String())
	assert.NotEqual(t, a, NewConversationKey(4, 9, NewRelated("housing", 1)))
}

func TestScopeKindString(t *testing.T) {
	assert.Equal(t, "general", ScopeGeneral.String())
	assert.Equal(t, "related", ScopeRelated.String())
	assert.Equal(t, "all", ScopeAll.String())
	assert.Equal(t, "unknown", ScopeKind(42).String())
}
