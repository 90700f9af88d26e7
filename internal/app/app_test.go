package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskdeck/pkg/ai"
	"taskdeck/pkg/domain"
	"taskdeck/pkg/storage"
	"taskdeck/pkg/store"
)

// stubInferencer returns a fixed result or error for every call.
type stubInferencer struct {
	result *ai.Result
	err    error
	calls  int
}

func (s *stubInferencer) Infer(_ context.Context, _, _ string, _ ai.ResponseKind) (*ai.Result, error) {
	s.calls++
	return s.result, s.err
}

func newTestApp(t *testing.T, inferrer ai.Inferencer) (*App, *store.MemoryStore, *storage.MemoryObjectStore) {
	t.Helper()
	dataStore := store.NewMemoryStore()
	objects := storage.NewMemoryObjectStore()
	if inferrer == nil {
		inferrer = &stubInferencer{}
	}
	a, err := New(dataStore, objects, inferrer)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, dataStore, objects
}

func signUpTestUser(t *testing.T, a *App) domain.User {
	t.Helper()
	user, err := a.SignUp("alice", "pw", "Alice", "al")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return user
}

func TestSignUpAndSignIn(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	user := signUpTestUser(t, a)
	if user.UserType != domain.UserStaff {
		t.Fatalf("new users default to staff, got %s", user.UserType)
	}
	if user.PasswordHash == "pw" {
		t.Fatalf("password must be hashed")
	}

	got, err := a.SignIn("alice", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("sign in returned wrong user")
	}
}

func TestSignUpDuplicate(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	signUpTestUser(t, a)
	if _, err := a.SignUp("alice", "other", "", ""); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	signUpTestUser(t, a)
	if _, err := a.SignIn("alice", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.SignIn("nobody", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user expected ErrInvalidCredentials, got %v", err)
	}
}

func TestEnsureUserIdempotent(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	if err := a.EnsureUser("admin", "pw", "Admin", domain.UserAdmin); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := a.EnsureUser("admin", "other", "Admin", domain.UserAdmin); err != nil {
		t.Fatalf("second ensure must be a no-op: %v", err)
	}
	// The original password still works.
	if _, err := a.SignIn("admin", "pw"); err != nil {
		t.Fatalf("original credentials must survive re-ensure: %v", err)
	}
}

func TestCreateProjectFromQuerySuccess(t *testing.T) {
	inferrer := &stubInferencer{result: &ai.Result{
		Kind: ai.KindProject,
		Project: &ai.ProjectResult{
			Title:     "Harbor expansion",
			Summary:   "expand the east dock",
			Content:   "details",
			Priority:  domain.PriorityHigh,
			Category:  domain.CategoryLongTerm,
			StartDate: 100,
			EndDate:   200,
		},
	}}
	a, dataStore, _ := newTestApp(t, inferrer)
	user := signUpTestUser(t, a)

	created, err := a.CreateProjectFromQuery(context.Background(), user, "build the dock", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected a project to be created")
	}

	projects, err := dataStore.FilterProjects(store.ProjectFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 || projects[0].Title != "Harbor expansion" {
		t.Fatalf("expected one project, got %+v", projects)
	}

	thread, ok, err := dataStore.GetThreadByUser(user.ID)
	if err != nil || !ok {
		t.Fatalf("load thread: ok=%v err=%v", ok, err)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(thread.Messages))
	}
	userMsg, assistantMsg := thread.Messages[0], thread.Messages[1]
	if userMsg.Role != domain.RoleUser || userMsg.Content != "build the dock" {
		t.Fatalf("unexpected user turn: %+v", userMsg)
	}
	if assistantMsg.Role != domain.RoleAssistant {
		t.Fatalf("unexpected assistant turn: %+v", assistantMsg)
	}
	if assistantMsg.ParentID != userMsg.ID {
		t.Fatalf("assistant turn must point at the user turn")
	}
	if !strings.Contains(assistantMsg.Content, "Harbor expansion") {
		t.Fatalf("assistant turn should carry the structured reply: %s", assistantMsg.Content)
	}
}

func TestCreateProjectFromQueryDeclinedPersistsNothing(t *testing.T) {
	a, dataStore, _ := newTestApp(t, &stubInferencer{result: nil, err: nil})
	user := signUpTestUser(t, a)

	created, err := a.CreateProjectFromQuery(context.Background(), user, "vague rambling", "")
	if err != nil {
		t.Fatalf("declined inference must not error: %v", err)
	}
	if created {
		t.Fatalf("declined inference must not create a project")
	}
	projects, _ := dataStore.FilterProjects(store.ProjectFilter{})
	if len(projects) != 0 {
		t.Fatalf("no project rows expected, got %+v", projects)
	}
	if _, ok, _ := dataStore.GetThreadByUser(user.ID); ok {
		t.Fatalf("declined inference must not persist the thread")
	}
}

func TestCreateProjectFromQueryInferenceError(t *testing.T) {
	a, dataStore, _ := newTestApp(t, &stubInferencer{err: errors.New("upstream down")})
	user := signUpTestUser(t, a)
	if _, err := a.CreateProjectFromQuery(context.Background(), user, "q", ""); err == nil {
		t.Fatalf("inference failure must propagate")
	}
	if _, ok, _ := dataStore.GetThreadByUser(user.ID); ok {
		t.Fatalf("failed inference must not persist the thread")
	}
}

func TestCreateProjectFromQueryAppendsToExistingThread(t *testing.T) {
	inferrer := &stubInferencer{result: &ai.Result{
		Kind:    ai.KindProject,
		Project: &ai.ProjectResult{Title: "T", Priority: domain.PriorityLow, Category: domain.CategoryShortTerm},
	}}
	a, dataStore, _ := newTestApp(t, inferrer)
	user := signUpTestUser(t, a)

	if _, err := a.CreateProjectFromQuery(context.Background(), user, "first", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := a.CreateProjectFromQuery(context.Background(), user, "second", ""); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if dataStore.ThreadCount() != 1 {
		t.Fatalf("one thread per user expected, got %d", dataStore.ThreadCount())
	}
	thread, _, _ := dataStore.GetThreadByUser(user.ID)
	if len(thread.Messages) != 4 {
		t.Fatalf("expected 4 messages across two rounds, got %d", len(thread.Messages))
	}
}

func TestModifyProjectNotFound(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	err := a.ModifyProject(domain.Project{ID: "absent", Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttachOpenDetachFile(t *testing.T) {
	a, dataStore, objects := newTestApp(t, nil)
	project, err := dataStore.PutProject(domain.Project{Title: "with file"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = a.AttachFile(context.Background(), project.ID, "plan.PDF", strings.NewReader("content"), 7, "application/pdf")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	stored, _, _ := dataStore.GetProject(project.ID)
	if !stored.HasFile() {
		t.Fatalf("attachment not linked: %+v", stored)
	}
	if !strings.HasSuffix(stored.BlobFileName, ".pdf") {
		t.Fatalf("blob name must keep a lowercased extension: %s", stored.BlobFileName)
	}
	if stored.OriginFileName != "plan.PDF" {
		t.Fatalf("origin name must be preserved verbatim: %s", stored.OriginFileName)
	}

	rc, size, origin, err := a.OpenFile(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
	if size != 7 || origin != "plan.PDF" {
		t.Fatalf("unexpected open result: size=%d origin=%s", size, origin)
	}

	blobName := stored.BlobFileName
	if err := a.DetachFile(context.Background(), project.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	stored, _, _ = dataStore.GetProject(project.ID)
	if stored.HasFile() {
		t.Fatalf("detach must clear the link: %+v", stored)
	}
	if objects.Has(blobName) {
		t.Fatalf("detach must remove the blob")
	}
	if _, _, _, err := a.OpenFile(context.Background(), project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("open after detach expected ErrNotFound, got %v", err)
	}
}

func TestAttachFileReplacesPreviousBlob(t *testing.T) {
	a, dataStore, objects := newTestApp(t, nil)
	project, err := dataStore.PutProject(domain.Project{Title: "p"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := a.AttachFile(context.Background(), project.ID, "one.txt", strings.NewReader("1"), 1, "text/plain"); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	first, _, _ := dataStore.GetProject(project.ID)
	if err := a.AttachFile(context.Background(), project.ID, "two.txt", strings.NewReader("22"), 2, "text/plain"); err != nil {
		t.Fatalf("second attach: %v", err)
	}
	second, _, _ := dataStore.GetProject(project.ID)
	if first.BlobFileName == second.BlobFileName {
		t.Fatalf("replacement must use a fresh blob name")
	}
	if objects.Has(first.BlobFileName) {
		t.Fatalf("old blob must be removed after replacement")
	}
	if !objects.Has(second.BlobFileName) {
		t.Fatalf("new blob must exist")
	}
}

func TestAttachFileProjectNotFound(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	err := a.AttachFile(context.Background(), "absent", "x.txt", strings.NewReader("x"), 1, "text/plain")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProjectRemovesBlob(t *testing.T) {
	a, dataStore, objects := newTestApp(t, nil)
	project, err := dataStore.PutProject(domain.Project{Title: "p"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := a.AttachFile(context.Background(), project.ID, "a.txt", strings.NewReader("a"), 1, "text/plain"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	stored, _, _ := dataStore.GetProject(project.ID)

	deleted, err := a.DeleteProject(context.Background(), project.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	if objects.Has(stored.BlobFileName) {
		t.Fatalf("blob must be removed with the project")
	}

	deleted, err = a.DeleteProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if deleted {
		t.Fatalf("repeat delete must report nothing removed")
	}
}

func TestBizDetailAndPrograms(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	client := domain.BizClient{Card: domain.BusinessCard{Name: "Kim Minsoo"}}
	if err := a.SaveBizClient(client); err != nil {
		t.Fatalf("save client: %v", err)
	}
	clients, err := a.ListBizClients(store.BizFilter{})
	if err != nil || len(clients) != 1 {
		t.Fatalf("list clients: n=%d err=%v", len(clients), err)
	}
	clientID := clients[0].ID
	if clientID == "" {
		t.Fatalf("save must assign an id")
	}

	if err := a.CreateProgram(clientID, domain.ProgramInterest, "First contact", ""); err != nil {
		t.Fatalf("create program: %v", err)
	}
	got, programs, err := a.BizDetail(clientID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if got.Card.Name != "Kim Minsoo" || len(programs) != 1 {
		t.Fatalf("unexpected detail: client=%+v programs=%+v", got, programs)
	}

	if err := a.SetProgramStatus(programs[0].ID, domain.ProgramCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	_, programs, _ = a.BizDetail(clientID)
	if programs[0].Status != domain.ProgramCompleted {
		t.Fatalf("status not updated: %+v", programs[0])
	}
}

func TestCreateProgramUnknownClient(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	if err := a.CreateProgram("absent", domain.ProgramInterest, "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProgramStatusNotFound(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	if err := a.SetProgramStatus("absent", domain.ProgramCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBizDetailNotFound(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	if _, _, err := a.BizDetail("absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
