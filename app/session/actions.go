package session

import (
	"context"
	"fmt"

	"github.com/lysyi3m/blog-comb/app/feed"
)

// Actions is the only way handlers change session state: one named operation
// per mutation, each mapped to a single store write.
type Actions struct {
	store Store
}

func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

func (a *Actions) Criteria(ctx context.Context, sessionID string) (feed.Criteria, error) {
	st, err := a.store.Load(ctx, sessionID)
	if err != nil {
		return feed.Criteria{}, err
	}
	return st.Criteria, nil
}

func (a *Actions) Selection(ctx context.Context, sessionID string) (feed.Selection, error) {
	st, err := a.store.Load(ctx, sessionID)
	if err != nil {
		return feed.Selection{}, err
	}
	return st.Selection, nil
}

func (a *Actions) State(ctx context.Context, sessionID string) (State, error) {
	return a.store.Load(ctx, sessionID)
}

func (a *Actions) SetSearchQuery(ctx context.Context, sessionID, query string) error {
	return a.store.SetSearchQuery(ctx, sessionID, query)
}

func (a *Actions) SetSortOrder(ctx context.Context, sessionID, order string) error {
	parsed, err := feed.ParseSortOrder(order)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return a.store.SetSortOrder(ctx, sessionID, parsed)
}

func (a *Actions) AddCategory(ctx context.Context, sessionID string, id feed.ID) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return a.store.AddMember(ctx, sessionID, SetCategories, id)
}

func (a *Actions) RemoveCategory(ctx context.Context, sessionID string, id feed.ID) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return a.store.RemoveMember(ctx, sessionID, SetCategories, id)
}

func (a *Actions) ClearCategories(ctx context.Context, sessionID string) error {
	return a.store.ReplaceMembers(ctx, sessionID, SetCategories, nil)
}

func (a *Actions) SetSelectedCategories(ctx context.Context, sessionID string, ids []feed.ID) error {
	cleaned, err := cleanIDs(ids)
	if err != nil {
		return err
	}
	return a.store.ReplaceMembers(ctx, sessionID, SetCategories, cleaned)
}

func (a *Actions) AddAuthor(ctx context.Context, sessionID string, id feed.ID) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return a.store.AddMember(ctx, sessionID, SetAuthors, id)
}

func (a *Actions) RemoveAuthor(ctx context.Context, sessionID string, id feed.ID) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return a.store.RemoveMember(ctx, sessionID, SetAuthors, id)
}

func (a *Actions) ClearAuthors(ctx context.Context, sessionID string) error {
	return a.store.ReplaceMembers(ctx, sessionID, SetAuthors, nil)
}

func (a *Actions) SetSelectedAuthors(ctx context.Context, sessionID string, ids []feed.ID) error {
	cleaned, err := cleanIDs(ids)
	if err != nil {
		return err
	}
	return a.store.ReplaceMembers(ctx, sessionID, SetAuthors, cleaned)
}

// ClearAllFilters resets search, both id sets and the sort order.
func (a *Actions) ClearAllFilters(ctx context.Context, sessionID string) error {
	return a.store.ResetCriteria(ctx, sessionID)
}

func (a *Actions) ActivatePost(ctx context.Context, sessionID string, id feed.ID) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return a.store.SetOverride(ctx, sessionID, id)
}

func (a *Actions) ClearActivePost(ctx context.Context, sessionID string) error {
	return a.store.SetOverride(ctx, sessionID, "")
}

func (a *Actions) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func cleanID(id feed.ID) (feed.ID, error) {
	id = feed.CleanID(string(id))
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	return id, nil
}

func cleanIDs(ids []feed.ID) ([]feed.ID, error) {
	cleaned := make([]feed.ID, 0, len(ids))
	for _, id := range ids {
		id, err := cleanID(id)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, id)
	}
	return cleaned, nil
}
