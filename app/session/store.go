package session

import (
	"context"
	"errors"

	"github.com/lysyi3m/blog-comb/app/feed"
)

var (
	ErrInvalidSession = errors.New("invalid session id")
	// ErrInvalidInput marks a rejected request value, as opposed to a store failure.
	ErrInvalidInput = errors.New("invalid input")
)

// State is what one browsing session has chosen: filter criteria and the
// active post override.
type State struct {
	Criteria  feed.Criteria  `json:"criteria"`
	Selection feed.Selection `json:"selection"`
}

func NewState() State {
	return State{Criteria: feed.DefaultCriteria()}
}

// Set names one of the id lists held in the criteria.
type Set string

const (
	SetCategories Set = "categories"
	SetAuthors    Set = "authors"
)

// Store persists session state. Every method touches a single field, so
// concurrent writers never clobber each other's fields.
type Store interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context, sessionID string) (State, error)

	SetSearchQuery(ctx context.Context, sessionID, query string) error
	SetSortOrder(ctx context.Context, sessionID string, order feed.SortOrder) error

	AddMember(ctx context.Context, sessionID string, set Set, id feed.ID) error
	RemoveMember(ctx context.Context, sessionID string, set Set, id feed.ID) error
	ReplaceMembers(ctx context.Context, sessionID string, set Set, ids []feed.ID) error

	// SetOverride sets the active post override; an empty id clears it.
	SetOverride(ctx context.Context, sessionID string, id feed.ID) error

	// ResetCriteria restores the default criteria. The selection is kept.
	ResetCriteria(ctx context.Context, sessionID string) error
}
