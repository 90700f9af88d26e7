package store

import (
	"errors"
	"testing"
	"time"

	"taskdeck/pkg/domain"
)

func TestCreateUserDuplicateName(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "u-1", Name: "alice"}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.CreateUser(domain.User{ID: "u-2", Name: "alice"})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestSaveThreadSingleRowPerUser(t *testing.T) {
	s := NewMemoryStore()
	thread := domain.Thread{ID: "t-1", UserID: "u-1"}
	thread.Append(domain.Message{ID: "m-1", Role: domain.RoleUser, Content: "hi", CreatedAt: time.Now().UTC()})
	if err := s.SaveThread(thread); err != nil {
		t.Fatalf("first save: %v", err)
	}

	loaded, ok, err := s.GetThreadByUser("u-1")
	if err != nil || !ok {
		t.Fatalf("load thread: ok=%v err=%v", ok, err)
	}
	loaded.Append(domain.Message{ID: "m-2", Role: domain.RoleAssistant, Content: "hello", CreatedAt: time.Now().UTC()})
	if err := s.SaveThread(loaded); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if s.ThreadCount() != 1 {
		t.Fatalf("expected a single thread row, got %d", s.ThreadCount())
	}
	reloaded, ok, err := s.GetThreadByUser("u-1")
	if err != nil || !ok {
		t.Fatalf("reload thread: ok=%v err=%v", ok, err)
	}
	if reloaded.ID != "t-1" {
		t.Fatalf("thread id changed across saves: %s", reloaded.ID)
	}
	if len(reloaded.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(reloaded.Messages))
	}
}

func TestGetThreadByUserSurfacesMalformedDocument(t *testing.T) {
	s := NewMemoryStore()
	s.PutRawThread("t-1", "u-1", []byte(`[{"u_id":"","role":"user"}]`))
	_, _, err := s.GetThreadByUser("u-1")
	if !errors.Is(err, domain.ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestPutProjectInsertDefaults(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.PutProject(domain.Project{Title: "Launch"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("insert must assign an id")
	}
	if created.Priority != domain.PriorityLow || created.Category != domain.CategoryShortTerm {
		t.Fatalf("insert defaults wrong: %+v", created)
	}
}

func TestPutProjectUpdateMissingRow(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.PutProject(domain.Project{ID: "absent", Title: "x"})
	if !errors.Is(err, ErrNoRowsUpdated) {
		t.Fatalf("expected ErrNoRowsUpdated, got %v", err)
	}
}

func TestPutProjectUpdatePreservesFileFields(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.PutProject(domain.Project{Title: "Launch"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SetProjectFile(created.ID, "f-1", "f-1.pdf", "plan.pdf"); err != nil {
		t.Fatalf("set file: %v", err)
	}
	if _, err := s.PutProject(domain.Project{ID: created.ID, Title: "Renamed", Priority: domain.PriorityHigh, Category: domain.CategoryMidTerm}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok, err := s.GetProject(created.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("title not updated: %+v", got)
	}
	if got.FileID != "f-1" || got.BlobFileName != "f-1.pdf" {
		t.Fatalf("content update must not clear file fields: %+v", got)
	}
}

func TestFilterProjectsNewestFirstAndPaged(t *testing.T) {
	s := NewMemoryStore()
	ids := make([]string, 0, 3)
	for _, title := range []string{"first", "second", "third"} {
		p, err := s.PutProject(domain.Project{Title: title})
		if err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
		ids = append(ids, p.ID)
		// Force distinct created_at ordering without sleeping.
		stored, _, _ := s.GetProject(p.ID)
		stored.CreatedAt = time.Now().Unix() + int64(len(ids))
		s.projects[p.ID] = stored
	}

	all, err := s.FilterProjects(ProjectFilter{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(all) != 3 || all[0].Title != "third" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	page, err := s.FilterProjects(ProjectFilter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("paged filter: %v", err)
	}
	if len(page) != 1 || page[0].Title != "second" {
		t.Fatalf("expected the middle project, got %+v", page)
	}

	empty, err := s.FilterProjects(ProjectFilter{Offset: 10})
	if err != nil {
		t.Fatalf("offset past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("offset past end must return empty, got %+v", empty)
	}
}

func TestFilterProjectsPredicates(t *testing.T) {
	s := NewMemoryStore()
	mustPut := func(p domain.Project) domain.Project {
		created, err := s.PutProject(p)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		return created
	}
	mustPut(domain.Project{Title: "Harbor expansion", Summary: "dock work", Priority: domain.PriorityHigh, Category: domain.CategoryLongTerm})
	mustPut(domain.Project{Title: "Office move", Summary: "pack boxes", Priority: domain.PriorityLow, Category: domain.CategoryShortTerm})

	high := domain.PriorityHigh
	byPriority, err := s.FilterProjects(ProjectFilter{Priority: &high})
	if err != nil {
		t.Fatalf("priority filter: %v", err)
	}
	if len(byPriority) != 1 || byPriority[0].Title != "Harbor expansion" {
		t.Fatalf("priority filter wrong: %+v", byPriority)
	}

	longTerm := domain.CategoryLongTerm
	byCategory, err := s.FilterProjects(ProjectFilter{Category: &longTerm})
	if err != nil {
		t.Fatalf("category filter: %v", err)
	}
	if len(byCategory) != 1 {
		t.Fatalf("category filter wrong: %+v", byCategory)
	}

	byQuery, err := s.FilterProjects(ProjectFilter{Query: "boxes"})
	if err != nil {
		t.Fatalf("query filter: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].Title != "Office move" {
		t.Fatalf("query must search title and summary: %+v", byQuery)
	}
}

func TestFilterProjectsWeekWindow(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	weekStart, weekEnd := weekBounds(now)
	inWeek, err := s.PutProject(domain.Project{Title: "due this week"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	stored, _, _ := s.GetProject(inWeek.ID)
	stored.EndDate = weekStart.Add(time.Hour).Unix()
	s.projects[inWeek.ID] = stored

	outOfWeek, err := s.PutProject(domain.Project{Title: "due later"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	stored, _, _ = s.GetProject(outOfWeek.ID)
	stored.EndDate = weekEnd.Add(48 * time.Hour).Unix()
	s.projects[outOfWeek.ID] = stored

	got, err := s.FilterProjects(ProjectFilter{DateFilter: domain.DateFilterWeek})
	if err != nil {
		t.Fatalf("week filter: %v", err)
	}
	if len(got) != 1 || got[0].Title != "due this week" {
		t.Fatalf("week window wrong: %+v", got)
	}
}

func TestSetProjectFileMissingRow(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SetProjectFile("absent", "f", "b", "o"); !errors.Is(err, ErrNoRowsUpdated) {
		t.Fatalf("expected ErrNoRowsUpdated, got %v", err)
	}
}

func TestDeleteProjectIdempotent(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.PutProject(domain.Project{Title: "temp"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	deleted, err := s.DeleteProject(created.ID)
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.DeleteProject(created.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatalf("second delete must report no row removed")
	}
}

func TestFilterBizClientsSearchAndOrder(t *testing.T) {
	s := NewMemoryStore()
	first := domain.BizClient{ID: "c-1", Card: domain.BusinessCard{Name: "Kim Minsoo", Company: domain.Company{Name: "Acme"}}}
	second := domain.BizClient{ID: "c-2", Card: domain.BusinessCard{Name: "Lee Jisoo", Company: domain.Company{Name: "Globex"}}}
	if err := s.SaveBizClient(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.SaveBizClient(second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	// Re-saving the first makes it the most recently updated.
	if err := s.SaveBizClient(first); err != nil {
		t.Fatalf("resave first: %v", err)
	}
	// Force distinct update times; map iteration would otherwise tie.
	c := s.biz["c-1"]
	c.UpdatedAt = c.UpdatedAt.Add(time.Second)
	s.biz["c-1"] = c

	byUpdated, err := s.FilterBizClients(BizFilter{OrderBy: BizOrderUpdated})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byUpdated) != 2 || byUpdated[0].ID != "c-1" {
		t.Fatalf("expected most recently updated first, got %+v", byUpdated)
	}

	matched, err := s.FilterBizClients(BizFilter{Query: "globex"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "c-2" {
		t.Fatalf("company search wrong: %+v", matched)
	}
}

func TestProgramsLifecycle(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateProgram(domain.Program{ID: "p-1", ClientID: "c-1", Status: domain.ProgramInterest, CreatedAt: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateProgram(domain.Program{ID: "p-2", ClientID: "c-1", Status: domain.ProgramRequested, CreatedAt: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetProgramStatus("p-1", domain.ProgramCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := s.SetProgramStatus("absent", domain.ProgramCompleted); !errors.Is(err, ErrNoRowsUpdated) {
		t.Fatalf("expected ErrNoRowsUpdated, got %v", err)
	}
	programs, err := s.ListProgramsByClient("c-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(programs) != 2 || programs[0].ID != "p-1" || programs[0].Status != domain.ProgramCompleted {
		t.Fatalf("unexpected programs: %+v", programs)
	}
}
