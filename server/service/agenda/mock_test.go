package agenda

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/internal/util"
	"github.com/hrygo/confagenda/server/internal/observability"
	"github.com/hrygo/confagenda/store"
)

// MockStoreForAgenda is an in-memory implementation of the Store interface for testing.
// Updates honor ExpectedVersion like the SQL drivers do.
type MockStoreForAgenda struct {
	mu        sync.Mutex
	agendas   map[string]*store.Agenda
	order     []string
	versions  []*store.AgendaVersion
	index     map[string][]*store.AgendaSession
	favorites []*store.Favorite

	// createConflicts makes the next N CreateAgenda calls fail as if another
	// create won the partial unique index.
	createConflicts int
	// beforeUpdate runs before every UpdateAgenda with the lock released.
	beforeUpdate func()
	updateCalls  int
}

func newMockStore() *MockStoreForAgenda {
	return &MockStoreForAgenda{
		agendas: map[string]*store.Agenda{},
		index:   map[string][]*store.AgendaSession{},
	}
}

func cloneSnapshot(snapshot *store.SmartAgenda) *store.SmartAgenda {
	clone, err := snapshot.Clone()
	if err != nil {
		panic(err)
	}
	return clone
}

func (m *MockStoreForAgenda) CreateAgenda(ctx context.Context, create *store.CreateAgenda) (*store.Agenda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createConflicts > 0 {
		m.createConflicts--
		return nil, store.ErrActiveAgendaConflict
	}
	if create.ID == "" {
		create.ID = util.GenUUID()
	}
	for _, a := range m.agendas {
		if a.UserID == create.UserID {
			a.IsActive = false
		}
	}
	now := time.Now().Unix()
	totals := create.Snapshot.Totals()
	agenda := &store.Agenda{
		ID:             create.ID,
		UserID:         create.UserID,
		IsActive:       true,
		GeneratedBy:    create.GeneratedBy,
		Version:        1,
		Snapshot:       cloneSnapshot(create.Snapshot),
		TotalSessions:  int32(totals.TotalSessions),
		FavoritesCount: int32(totals.FavoritesCount),
		CreatedTs:      now,
		UpdatedTs:      now,
	}
	m.agendas[agenda.ID] = agenda
	m.order = append(m.order, agenda.ID)
	m.versions = append(m.versions, &store.AgendaVersion{
		ID:                util.GenUUID(),
		AgendaID:          agenda.ID,
		Version:           1,
		Snapshot:          cloneSnapshot(create.Snapshot),
		ChangeDescription: create.ChangeDescription,
		ChangedBy:         create.ChangedBy,
		CreatedTs:         now,
	})
	m.index[agenda.ID] = create.Snapshot.SessionIndex(agenda.ID)
	copied := *agenda
	return &copied, nil
}

func (m *MockStoreForAgenda) GetAgenda(ctx context.Context, find *store.FindAgenda) (*store.Agenda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		a := m.agendas[m.order[i]]
		if find.ID != nil && a.ID != *find.ID {
			continue
		}
		if find.UserID != nil && a.UserID != *find.UserID {
			continue
		}
		if find.IsActive != nil && a.IsActive != *find.IsActive {
			continue
		}
		copied := *a
		copied.Snapshot = cloneSnapshot(a.Snapshot)
		return &copied, nil
	}
	return nil, nil
}

func (m *MockStoreForAgenda) UpdateAgenda(ctx context.Context, update *store.UpdateAgenda) (*store.Agenda, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	a, ok := m.agendas[update.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.ExpectedVersion != nil && a.Version != *update.ExpectedVersion {
		return nil, store.ErrVersionConflict
	}
	totals := update.Snapshot.Totals()
	a.Version++
	a.Snapshot = cloneSnapshot(update.Snapshot)
	a.TotalSessions = int32(totals.TotalSessions)
	a.FavoritesCount = int32(totals.FavoritesCount)
	a.UpdatedTs = time.Now().Unix()
	m.index[a.ID] = update.Snapshot.SessionIndex(a.ID)
	if update.CreateVersion {
		m.versions = append(m.versions, &store.AgendaVersion{
			ID:                util.GenUUID(),
			AgendaID:          a.ID,
			Version:           a.Version,
			Snapshot:          cloneSnapshot(update.Snapshot),
			ChangeDescription: update.ChangeDescription,
			ChangedBy:         update.ChangedBy,
			CreatedTs:         a.UpdatedTs,
		})
	}
	copied := *a
	return &copied, nil
}

// bumpVersion simulates a concurrent writer.
func (m *MockStoreForAgenda) bumpVersion(agendaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agendas[agendaID].Version++
}

func (m *MockStoreForAgenda) DeleteAgenda(ctx context.Context, delete *store.DeleteAgenda) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.agendas[delete.ID]; ok && a.UserID == delete.UserID {
		a.IsActive = false
	}
	return nil
}

func (m *MockStoreForAgenda) ListAgendaVersions(ctx context.Context, find *store.FindAgendaVersion) ([]*store.AgendaVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*store.AgendaVersion{}
	for _, v := range m.versions {
		if find.ID != nil && v.ID != *find.ID {
			continue
		}
		if find.AgendaID != nil && v.AgendaID != *find.AgendaID {
			continue
		}
		if find.Version != nil && v.Version != *find.Version {
			continue
		}
		copied := *v
		if find.ExcludeSnapshot {
			copied.Snapshot = nil
		} else {
			copied.Snapshot = cloneSnapshot(v.Snapshot)
		}
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Version > result[j].Version })
	return result, nil
}

func (m *MockStoreForAgenda) GetAgendaVersion(ctx context.Context, find *store.FindAgendaVersion) (*store.AgendaVersion, error) {
	list, err := m.ListAgendaVersions(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *MockStoreForAgenda) ListAgendaSessions(ctx context.Context, find *store.FindAgendaSession) ([]*store.AgendaSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*store.AgendaSession{}
	for agendaID, rows := range m.index {
		if find.AgendaID != nil && agendaID != *find.AgendaID {
			continue
		}
		for _, row := range rows {
			if find.SessionID != nil && row.SessionID != *find.SessionID {
				continue
			}
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *MockStoreForAgenda) ReplaceAgendaSessions(ctx context.Context, agendaID string, rows []*store.AgendaSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[agendaID] = rows
	return nil
}

func (m *MockStoreForAgenda) ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*store.Favorite{}
	for _, f := range m.favorites {
		if find.UserID != nil && f.UserID != *find.UserID {
			continue
		}
		if find.Type != nil && f.Type != *find.Type {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}

// MockCatalog is an in-memory session catalog.
type MockCatalog struct {
	sessions map[string]*store.Session
}

func newMockCatalog(sessions ...*store.Session) *MockCatalog {
	c := &MockCatalog{sessions: map[string]*store.Session{}}
	for _, s := range sessions {
		c.sessions[s.ID] = s
	}
	return c
}

func (c *MockCatalog) GetSession(ctx context.Context, id string) (*store.Session, error) {
	return c.sessions[id], nil
}

func (c *MockCatalog) ListSessionsByIDs(ctx context.Context, ids []string) ([]*store.Session, error) {
	result := []*store.Session{}
	for _, id := range ids {
		if s, ok := c.sessions[id]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

func (c *MockCatalog) ListAll(ctx context.Context) ([]*store.Session, error) {
	result := make([]*store.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTs != result[j].StartTs {
			return result[i].StartTs < result[j].StartTs
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// at returns a conference-local instant on the given day.
func at(day, hour, minute int) time.Time {
	loc := conference.Default().Location()
	date, err := time.ParseInLocation("2006-01-02", conference.Default().DateOf(day), loc)
	if err != nil {
		panic(err)
	}
	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func timedSession(id, title, track string, day, hour, minute, durationMinutes int, tags ...string) *store.Session {
	start := at(day, hour, minute)
	return &store.Session{
		ID:       id,
		Title:    title,
		Track:    track,
		Location: "Hall " + track,
		StartTs:  start.Unix(),
		EndTs:    start.Add(time.Duration(durationMinutes) * time.Minute).Unix(),
		Tags:     tags,
		Speakers: []store.SpeakerRef{{ID: "spk-ada", Name: "Ada Lin", Company: "Acme Mutual"}},
	}
}

func testingCatalog() []*store.Session {
	return []*store.Session{
		timedSession("ses-101", "Opening Keynote", "AI", 1, 9, 0, 60, "claims"),
		timedSession("ses-102", "GenAI Underwriting", "AI", 1, 9, 30, 60, "genai"),
		timedSession("ses-103", "Model Risk", "AI", 1, 10, 0, 60),
		timedSession("ses-104", "Claims Panel", "Claims", 1, 9, 0, 60),
		timedSession("ses-105", "Data Mesh", "Data", 1, 9, 50, 40, "genai"),
		timedSession("ses-201", "Agents in Production", "AI", 2, 14, 0, 60),
		timedSession("ses-202", "Pricing Engines", "AI", 2, 9, 0, 60),
		timedSession("ses-203", "Lakehouse", "Data", 2, 11, 0, 60),
		{ID: "ses-999", Title: "Untimed Meetup", Track: "Community"},
	}
}

// scheduleItem builds an item the way an agenda builder would, from a catalog session.
func scheduleItem(session *store.Session, source store.ItemSource, favorite bool) *store.ScheduleItem {
	conf := conference.Default()
	return &store.ScheduleItem{
		ID:      session.ID,
		Kind:    store.ItemKindSession,
		Time:    conf.DisplayTime(session.StartTime()),
		EndTime: conf.DisplayTime(session.EndTime()),
		Item: &store.ItemSnapshot{
			ID:       session.ID,
			Title:    session.Title,
			Location: session.Location,
			Track:    session.Track,
			Speakers: session.Speakers,
		},
		Source:     source,
		IsFavorite: favorite,
	}
}

// newTestingSnapshot places ai-suggested items for ids on their conference days.
func newTestingSnapshot(catalog []*store.Session, ids ...string) *store.SmartAgenda {
	conf := conference.Default()
	byID := map[string]*store.Session{}
	for _, s := range catalog {
		byID[s.ID] = s
	}
	snapshot := &store.SmartAgenda{}
	for _, id := range ids {
		session := byID[id]
		day := conf.DayNumber(session.StartTime())
		ds := snapshot.EnsureDay(day, conf.DateOf(day))
		insertOrdered(ds, scheduleItem(session, store.SourceAISuggested, false))
		ds.Stats.TotalSessions++
	}
	refreshMetadata(snapshot)
	return snapshot
}

func newTestingService() (*service, *MockStoreForAgenda, *MockCatalog) {
	mockStore := newMockStore()
	catalog := newMockCatalog(testingCatalog()...)
	svc := NewService(mockStore, catalog, nil).(*service)
	svc.metrics = observability.NewMetrics()
	return svc, mockStore, catalog
}
