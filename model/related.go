package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	RelatedGeneral  = "general"
	RelatedHousing  = "housing"
	RelatedRoommate = "roommate"
	RelatedBuddy    = "buddy"
)

// Related identifies the listing a message is about. The zero value is the
// general bucket: no listing.
type Related struct {
	Kind string `json:"related_type"`
	ID   uint64 `json:"related_id"`
}

var General = Related{}

// NewRelated builds the canonical value for a kind/id pair. An empty kind and
// the literal "general" both mean General, whatever the id.
func NewRelated(kind string, id uint64) Related {
	if kind == "" || kind == RelatedGeneral {
		return General
	}

	return Related{Kind: kind, ID: id}
}

func (r Related) IsGeneral() bool {
	return r.Kind == ""
}

func (r Related) String() string {
	if r.IsGeneral() {
		return RelatedGeneral + "_0"
	}

	return fmt.Sprintf("%s_%d", r.Kind, r.ID)
}

// ScopeKind selects which rows of a user pair a conversation operation
// touches.
type ScopeKind int

const (
	// ScopeGeneral matches rows with no related listing.
	ScopeGeneral ScopeKind = iota
	// ScopeRelated matches rows tagged with one listing.
	ScopeRelated
	// ScopeAll matches every row between the pair. It is only produced for
	// inputs that are neither clearly general nor clearly related.
	ScopeAll
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGeneral:
		return "general"
	case ScopeRelated:
		return "related"
	case ScopeAll:
		return "all"
	default:
		return "unknown"
	}
}

type ReadScope struct {
	Kind ScopeKind

	// Type and ID select the listing for ScopeRelated. ID is signed: request
	// ids are taken as given, and one no listing can have matches no rows.
	Type string
	ID   int64

	// RawType and RawID keep the request values for diagnostics.
	RawType string
	RawID   string
}

func GeneralScope() ReadScope {
	return ReadScope{Kind: ScopeGeneral}
}

func RelatedScope(r Related) ReadScope {
	if r.IsGeneral() {
		return GeneralScope()
	}

	return ReadScope{Kind: ScopeRelated, Type: r.Kind, ID: int64(r.ID)}
}

// Fallback reports whether the scope came from ambiguous input and widens the
// match to the whole pair.
func (s ReadScope) Fallback() bool {
	return s.Kind == ScopeAll
}

// ParseReadScope classifies raw related_type/related_id request values.
//
// A type other than "" or "general" together with an id other than "" or "0"
// selects that listing. The id is read from its leading signed integer, so
// "-1" and "7abc" both select a listing (-1 and 7). A general-or-empty type
// together with an empty or "0" id selects the general conversation.
// Anything else falls back to ScopeAll, including an id with no leading
// integer at all.
func ParseReadScope(rawType, rawID string) ReadScope {
	scope := ReadScope{Kind: ScopeAll, RawType: rawType, RawID: rawID}

	generalType := rawType == "" || rawType == RelatedGeneral
	generalID := rawID == "" || rawID == "0"

	switch {
	case !generalType && !generalID:
		id, ok := leadingInt(rawID)
		if ok {
			scope.Kind = ScopeRelated
			scope.Type = rawType
			scope.ID = id
		}
	case generalType && generalID:
		scope.Kind = ScopeGeneral
	}

	return scope
}

// leadingInt parses the optionally signed run of digits at the start of s,
// after leading whitespace. Trailing characters are ignored.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digits {
		return 0, false
	}

	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

// Matches is the in-memory form of the scope's row filter.
func (s ReadScope) Matches(m Message) bool {
	switch s.Kind {
	case ScopeGeneral:
		return m.Related().IsGeneral()
	case ScopeRelated:
		return m.RelatedType != nil && *m.RelatedType == s.Type &&
			m.RelatedID != nil && s.ID >= 0 && *m.RelatedID == uint64(s.ID)
	default:
		return true
	}
}

// ConversationKey identifies a conversation: the unordered participant pair
// plus the related listing.
type ConversationKey struct {
	Low     uint64
	High    uint64
	Related Related
}

func NewConversationKey(a, b uint64, related Related) ConversationKey {
	if a > b {
		a, b = b, a
	}

	return ConversationKey{Low: a, High: b, Related: related}
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%d_%d_%s", k.Low, k.High, k.Related)
}
