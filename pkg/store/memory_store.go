package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs handler and app tests and
// mirrors GormStore semantics, including the encoded thread document.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User // key: user ID
	names    map[string]string      // login name -> user ID
	threads  map[string]memThread   // key: thread ID
	projects map[string]domain.Project
	biz      map[string]domain.BizClient
	programs map[string]domain.Program
}

type memThread struct {
	id        string
	userID    string
	raw       []byte
	summary   string
	createdAt time.Time
	updatedAt time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		names:    make(map[string]string),
		threads:  make(map[string]memThread),
		projects: make(map[string]domain.Project),
		biz:      make(map[string]domain.BizClient),
		programs: make(map[string]domain.Program),
	}
}

// CreateUser registers a user; duplicate login names fail.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.names[u.Name]; exists {
		return ErrDuplicateUser
	}
	m.users[u.ID] = u
	m.names[u.Name] = u.ID
	return nil
}

// GetUserByName looks up a user by login name.
func (m *MemoryStore) GetUserByName(name string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[name]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// GetThreadByUser decodes the stored document, surfacing malformed messages.
func (m *MemoryStore) GetThreadByUser(userID string) (domain.Thread, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.threads {
		if t.userID != userID {
			continue
		}
		msgs, err := domain.DecodeMessages(t.raw)
		if err != nil {
			return domain.Thread{}, false, err
		}
		return domain.Thread{
			ID:        t.id,
			UserID:    t.userID,
			Messages:  msgs,
			Summary:   t.summary,
			CreatedAt: t.createdAt,
			UpdatedAt: t.updatedAt,
		}, true, nil
	}
	return domain.Thread{}, false, nil
}

// SaveThread rewrites the full message document and refreshes updated_at.
func (m *MemoryStore) SaveThread(t domain.Thread) error {
	raw, err := domain.EncodeMessages(t.Messages)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	createdAt := t.CreatedAt
	if existing, ok := m.threads[t.ID]; ok {
		createdAt = existing.createdAt
	} else if createdAt.IsZero() {
		createdAt = now
	}
	m.threads[t.ID] = memThread{
		id:        t.ID,
		userID:    t.UserID,
		raw:       raw,
		summary:   t.Summary,
		createdAt: createdAt,
		updatedAt: now,
	}
	return nil
}

// ThreadCount reports the number of stored thread rows (test hook).
func (m *MemoryStore) ThreadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.threads)
}

// FilterProjects applies the same predicates as the SQL path.
func (m *MemoryStore) FilterProjects(filter ProjectFilter) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from, to, windowed := dateWindow(filter.DateFilter, time.Now())
	matched := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.Priority != nil && p.Priority != *filter.Priority {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(p.Title, filter.Query) &&
			!strings.Contains(p.Summary, filter.Query) {
			continue
		}
		if windowed && (p.EndDate < from || p.EndDate > to) {
			continue
		}
		matched = append(matched, p)
	}
	sortProjectsNewestFirst(matched)
	if filter.Offset >= len(matched) {
		return []domain.Project{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// GetProject retrieves a project by ID.
func (m *MemoryStore) GetProject(id string) (domain.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	return p, ok, nil
}

// PutProject inserts with defaults or rewrites content fields.
func (m *MemoryStore) PutProject(p domain.Project) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if p.ID == "" {
		p.ID = uuid.NewString()
		if p.Priority == "" {
			p.Priority = domain.PriorityLow
		}
		if p.Category == "" {
			p.Category = domain.CategoryShortTerm
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		m.projects[p.ID] = p
		return p, nil
	}
	existing, ok := m.projects[p.ID]
	if !ok {
		return domain.Project{}, ErrNoRowsUpdated
	}
	existing.Title = p.Title
	existing.Summary = p.Summary
	existing.Content = p.Content
	existing.Priority = p.Priority
	existing.Category = p.Category
	existing.StartDate = p.StartDate
	existing.EndDate = p.EndDate
	existing.UpdatedAt = now
	m.projects[p.ID] = existing
	return existing, nil
}

// SetProjectFile updates the attachment reference.
func (m *MemoryStore) SetProjectFile(id, fileID, blobName, originName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return ErrNoRowsUpdated
	}
	p.FileID = fileID
	p.BlobFileName = blobName
	p.OriginFileName = originName
	p.UpdatedAt = time.Now().Unix()
	m.projects[id] = p
	return nil
}

// DeleteProject removes the row; absent ids return false.
func (m *MemoryStore) DeleteProject(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return false, nil
	}
	delete(m.projects, id)
	return true, nil
}

// FilterBizClients matches the decoded card payload against the query.
func (m *MemoryStore) FilterBizClients(filter BizFilter) ([]domain.BizClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]domain.BizClient, 0, len(m.biz))
	for _, c := range m.biz {
		if c.Card.MatchesQuery(filter.Query) {
			matched = append(matched, c)
		}
	}
	if filter.OrderBy == BizOrderCreated {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		})
	}
	return paginateBizClients(matched, filter.Offset, filter.Limit), nil
}

// GetBizClient retrieves one contact.
func (m *MemoryStore) GetBizClient(id string) (domain.BizClient, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.biz[id]
	return c, ok, nil
}

// SaveBizClient stores or replaces a contact record.
func (m *MemoryStore) SaveBizClient(c domain.BizClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.biz[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.biz[c.ID] = c
	return nil
}

// ListProgramsByClient returns pipeline records for a contact, oldest first.
func (m *MemoryStore) ListProgramsByClient(clientID string) ([]domain.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Program, 0)
	for _, p := range m.programs {
		if p.ClientID == clientID {
			res = append(res, p)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt < res[j].CreatedAt
	})
	return res, nil
}

// CreateProgram records a new pipeline entry.
func (m *MemoryStore) CreateProgram(p domain.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs[p.ID] = p
	return nil
}

// SetProgramStatus moves a program to a stage.
func (m *MemoryStore) SetProgramStatus(id string, status domain.ProgramStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return ErrNoRowsUpdated
	}
	p.Status = status
	p.UpdatedAt = time.Now().Unix()
	m.programs[id] = p
	return nil
}

// PutRawThread injects a pre-encoded thread document (test hook for malformed
// stored messages).
func (m *MemoryStore) PutRawThread(id, userID string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.threads[id] = memThread{id: id, userID: userID, raw: raw, createdAt: now, updatedAt: now}
}
