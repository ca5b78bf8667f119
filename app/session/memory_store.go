package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/blog-comb/app/feed"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps sessions in process memory. Ids are returned in the order
// they were added. A session untouched for longer than ttl is forgotten; a
// non-positive ttl keeps sessions for the life of the process.
type MemoryStore struct {
	sessions  map[string]*memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	mu        sync.Mutex
}

type memoryEntry struct {
	state  State
	seenAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len reports how many sessions are currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(sessionID, false)
	if entry == nil {
		return NewState(), nil
	}

	st := &entry.state
	out := *st
	out.Criteria.SelectedCategories = slices.Clone(st.Criteria.SelectedCategories)
	out.Criteria.SelectedAuthors = slices.Clone(st.Criteria.SelectedAuthors)
	return out, nil
}

func (s *MemoryStore) SetSearchQuery(ctx context.Context, sessionID, query string) error {
	return s.update(sessionID, func(st *State) {
		st.Criteria.SearchQuery = query
	})
}

func (s *MemoryStore) SetSortOrder(ctx context.Context, sessionID string, order feed.SortOrder) error {
	return s.update(sessionID, func(st *State) {
		st.Criteria.SortOrder = order
	})
}

func (s *MemoryStore) AddMember(ctx context.Context, sessionID string, set Set, id feed.ID) error {
	return s.update(sessionID, func(st *State) {
		ids := members(st, set)
		if !slices.Contains(*ids, id) {
			*ids = append(*ids, id)
		}
	})
}

func (s *MemoryStore) RemoveMember(ctx context.Context, sessionID string, set Set, id feed.ID) error {
	return s.update(sessionID, func(st *State) {
		ids := members(st, set)
		*ids = slices.DeleteFunc(*ids, func(v feed.ID) bool { return v == id })
	})
}

func (s *MemoryStore) ReplaceMembers(ctx context.Context, sessionID string, set Set, ids []feed.ID) error {
	return s.update(sessionID, func(st *State) {
		unique := make([]feed.ID, 0, len(ids))
		for _, id := range ids {
			if !slices.Contains(unique, id) {
				unique = append(unique, id)
			}
		}
		*members(st, set) = unique
	})
}

func (s *MemoryStore) SetOverride(ctx context.Context, sessionID string, id feed.ID) error {
	return s.update(sessionID, func(st *State) {
		st.Selection.Activate(id)
	})
}

func (s *MemoryStore) ResetCriteria(ctx context.Context, sessionID string) error {
	return s.update(sessionID, func(st *State) {
		st.Criteria = feed.DefaultCriteria()
	})
}

func (s *MemoryStore) update(sessionID string, fn func(st *State)) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.entry(sessionID, true).state)
	return nil
}

// entry returns the live entry for sessionID and marks it as seen. Expired
// entries count as missing. Callers hold s.mu.
func (s *MemoryStore) entry(sessionID string, create bool) *memoryEntry {
	now := s.now()
	s.sweep(now)

	entry, ok := s.sessions[sessionID]
	if ok && s.expired(entry, now) {
		delete(s.sessions, sessionID)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		entry = &memoryEntry{state: NewState()}
		s.sessions[sessionID] = entry
	}
	entry.seenAt = now
	return entry
}

func (s *MemoryStore) expired(entry *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.seenAt) > s.ttl
}

// sweep drops idle sessions, at most once per ttl.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now

	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
		}
	}
}

func members(st *State, set Set) *[]feed.ID {
	if set == SetAuthors {
		return &st.Criteria.SelectedAuthors
	}
	return &st.Criteria.SelectedCategories
}
