// Package catalog provides read access to the conference session catalog.
//
// Lookups by id go through an LRU cache with a TTL; concurrent misses for the
// same key share a single store query. Cached sessions are shared between
// callers and must be treated as read-only.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/store"
	"github.com/hrygo/confagenda/store/cache"
)

const (
	// DefaultCacheSize is the number of sessions kept in memory.
	DefaultCacheSize = 2000
	// DefaultCacheTTL bounds how stale a cached session may be.
	DefaultCacheTTL = 5 * time.Minute

	sessionKeyPrefix = "session:"
	allSessionsKey   = "all"
)

// Store is the interface for store operations needed by the catalog service.
type Store interface {
	UpsertSession(ctx context.Context, upsert *store.Session) (*store.Session, error)
	ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error)
	UpsertSpeaker(ctx context.Context, upsert *store.Speaker) (*store.Speaker, error)
	ListSpeakers(ctx context.Context, find *store.FindSpeaker) ([]*store.Speaker, error)
}

// Service serves catalog reads for the agenda engine and the HTTP layer.
type Service struct {
	store      Store
	conference *conference.Conference

	sessions *cache.LRU[*store.Session]
	lists    *cache.LRU[[]*store.Session]
	group    singleflight.Group
}

// NewService creates a catalog service. A nil conference uses the default edition.
func NewService(s Store, conf *conference.Conference) *Service {
	if conf == nil {
		conf = conference.Default()
	}
	return &Service{
		store:      s,
		conference: conf,
		sessions:   cache.NewLRU[*store.Session](DefaultCacheSize, DefaultCacheTTL),
		lists:      cache.NewLRU[[]*store.Session](4, DefaultCacheTTL),
	}
}

// Conference returns the conference the catalog belongs to.
func (s *Service) Conference() *conference.Conference {
	return s.conference
}

// GetSession returns a session by id, or nil when the catalog has no such session.
func (s *Service) GetSession(ctx context.Context, id string) (*store.Session, error) {
	key := sessionKeyPrefix + id
	if session, ok := s.sessions.Get(key); ok {
		return session, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		list, err := s.store.ListSessions(ctx, &store.FindSession{ID: &id})
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return (*store.Session)(nil), nil
		}
		s.sessions.Set(key, list[0], 0)
		return list[0], nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get session %s", id)
	}
	return v.(*store.Session), nil
}

// ListSessionsByIDs returns the known sessions among ids, in request order.
// Unknown ids are skipped.
func (s *Service) ListSessionsByIDs(ctx context.Context, ids []string) ([]*store.Session, error) {
	found := make(map[string]*store.Session, len(ids))
	missing := []string{}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if session, ok := s.sessions.Get(sessionKeyPrefix + id); ok {
			found[id] = session
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		list, err := s.store.ListSessions(ctx, &store.FindSession{IDs: missing})
		if err != nil {
			return nil, errors.Wrap(err, "failed to list sessions by ids")
		}
		for _, session := range list {
			s.sessions.Set(sessionKeyPrefix+session.ID, session, 0)
			found[session.ID] = session
		}
	}

	result := make([]*store.Session, 0, len(found))
	for _, id := range ids {
		if session, ok := found[id]; ok {
			result = append(result, session)
			delete(found, id)
		}
	}
	return result, nil
}

// ListSessions queries the store directly, bypassing the cache.
func (s *Service) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	list, err := s.store.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	return list, nil
}

// ListAll returns the whole catalog ordered by start time.
func (s *Service) ListAll(ctx context.Context) ([]*store.Session, error) {
	if list, ok := s.lists.Get(allSessionsKey); ok {
		return list, nil
	}
	v, err, _ := s.group.Do(allSessionsKey, func() (any, error) {
		list, err := s.store.ListSessions(ctx, &store.FindSession{})
		if err != nil {
			return nil, err
		}
		s.lists.Set(allSessionsKey, list, 0)
		for _, session := range list {
			s.sessions.Set(sessionKeyPrefix+session.ID, session, 0)
		}
		return list, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list catalog")
	}
	return v.([]*store.Session), nil
}

// ListSpeakers lists speaker profiles.
func (s *Service) ListSpeakers(ctx context.Context, find *store.FindSpeaker) ([]*store.Speaker, error) {
	list, err := s.store.ListSpeakers(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list speakers")
	}
	return list, nil
}

// Invalidate drops every cached entry.
func (s *Service) Invalidate() {
	n := s.sessions.Invalidate(sessionKeyPrefix + "*")
	s.lists.Clear()
	slog.Debug("catalog cache invalidated", slog.Int("sessions", n))
}
