package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdeck/pkg/ai"
	"taskdeck/pkg/auth"
	"taskdeck/pkg/domain"
	"taskdeck/pkg/storage"
	"taskdeck/pkg/store"
)

// App wires storage, object storage, and the inference gateway into the
// dashboard's use cases.
type App struct {
	store    store.Store
	objects  storage.ObjectStore
	inferrer ai.Inferencer
}

// New constructs the application core.
func New(dataStore store.Store, objects storage.ObjectStore, inferrer ai.Inferencer) (*App, error) {
	if dataStore == nil {
		return nil, fmt.Errorf("data store required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if inferrer == nil {
		return nil, fmt.Errorf("inferencer required")
	}
	return &App{store: dataStore, objects: objects, inferrer: inferrer}, nil
}

// SignUp registers a user with a salted password hash.
func (a *App) SignUp(name, password, userName, nickname string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return domain.User{}, fmt.Errorf("name and password required")
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: auth.HashPassword(password),
		UserName:     userName,
		UserNickname: nickname,
		UserType:     domain.UserStaff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn validates credentials and returns the user.
func (a *App) SignIn(name, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByName(strings.TrimSpace(name))
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser resolves a user id, typically a verified token subject.
func (a *App) GetUser(id string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// EnsureUser seeds a login at startup when it does not exist yet.
func (a *App) EnsureUser(name, password, displayName string, userType domain.UserType) error {
	_, ok, err := a.store.GetUserByName(name)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if ok {
		return nil
	}
	now := time.Now().UTC()
	return a.store.CreateUser(domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: auth.HashPassword(password),
		UserName:     displayName,
		UserNickname: displayName,
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// CreateProjectFromQuery runs the LLM-assisted creation flow: load or create
// the user's thread, append the user turn, run one structured inference, and
// on success append the assistant turn, persist the thread, and insert the
// project. A declined or unparsable model reply creates nothing and persists
// nothing; the false return tells the caller no project exists.
func (a *App) CreateProjectFromQuery(ctx context.Context, user domain.User, query, parentID string) (bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return false, fmt.Errorf("query required")
	}
	thread, ok, err := a.store.GetThreadByUser(user.ID)
	if err != nil {
		return false, fmt.Errorf("load thread: %w", err)
	}
	if !ok {
		thread = domain.Thread{
			ID:     uuid.NewString(),
			UserID: user.ID,
		}
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   query,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	thread.Append(userMsg)

	result, err := a.inferrer.Infer(ctx, ai.ProjectSystemPrompt(time.Now()), query, ai.KindProject)
	if err != nil {
		return false, fmt.Errorf("infer project: %w", err)
	}
	if result == nil || result.Project == nil {
		return false, nil
	}

	assistantContent, err := json.Marshal(result.Project)
	if err != nil {
		return false, fmt.Errorf("encode assistant message: %w", err)
	}
	thread.Append(domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   string(assistantContent),
		ParentID:  userMsg.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err := a.store.SaveThread(thread); err != nil {
		return false, fmt.Errorf("save thread: %w", err)
	}

	project := domain.Project{
		Title:     result.Project.Title,
		Summary:   result.Project.Summary,
		Content:   result.Project.Content,
		Priority:  result.Project.Priority,
		Category:  result.Project.Category,
		StartDate: result.Project.StartDate,
		EndDate:   result.Project.EndDate,
	}
	if _, err := a.store.PutProject(project); err != nil {
		return false, fmt.Errorf("put project: %w", err)
	}
	return true, nil
}

// History returns the user's conversation in chronological order.
func (a *App) History(userID string) ([]domain.Message, error) {
	thread, ok, err := a.store.GetThreadByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if !ok {
		return []domain.Message{}, nil
	}
	return thread.History(), nil
}

// Dashboard lists projects through the filter layer.
func (a *App) Dashboard(filter store.ProjectFilter) ([]domain.Project, error) {
	projects, err := a.store.FilterProjects(filter)
	if err != nil {
		return nil, fmt.Errorf("filter projects: %w", err)
	}
	return projects, nil
}

// ModifyProject rewrites all content fields of an existing project.
func (a *App) ModifyProject(p domain.Project) error {
	if p.ID == "" {
		return fmt.Errorf("project id required")
	}
	if _, err := a.store.PutProject(p); err != nil {
		if errors.Is(err, store.ErrNoRowsUpdated) {
			return ErrNotFound
		}
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

// DeleteProject removes the project row after clearing its blob. A missing
// blob is treated as already gone; a missing row returns false without error.
func (a *App) DeleteProject(ctx context.Context, id string) (bool, error) {
	project, ok, err := a.store.GetProject(id)
	if err != nil {
		return false, fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return false, nil
	}
	if project.HasFile() {
		if err := a.objects.Delete(ctx, project.BlobFileName); err != nil {
			slog.Warn("delete blob failed, continuing", "project_id", id, "blob", project.BlobFileName, "err", err)
		}
	}
	return a.store.DeleteProject(id)
}

// AttachFile uploads an attachment and links it to the project, replacing any
// previous attachment.
func (a *App) AttachFile(ctx context.Context, projectID, originName string, r io.Reader, size int64, contentType string) error {
	project, ok, err := a.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	fileID := uuid.NewString()
	blobName := fileID + strings.ToLower(filepath.Ext(originName))
	if err := a.objects.Put(ctx, blobName, r, size, contentType); err != nil {
		return fmt.Errorf("upload blob: %w", err)
	}
	if err := a.store.SetProjectFile(projectID, fileID, blobName, originName); err != nil {
		if errors.Is(err, store.ErrNoRowsUpdated) {
			return ErrNotFound
		}
		return fmt.Errorf("link file: %w", err)
	}
	if project.HasFile() && project.BlobFileName != blobName {
		if err := a.objects.Delete(ctx, project.BlobFileName); err != nil {
			slog.Warn("delete replaced blob failed", "project_id", projectID, "blob", project.BlobFileName, "err", err)
		}
	}
	return nil
}

// OpenFile streams a project's attachment. Missing projects, missing links,
// and missing blobs all surface as ErrNotFound.
func (a *App) OpenFile(ctx context.Context, projectID string) (io.ReadCloser, int64, string, error) {
	project, ok, err := a.store.GetProject(projectID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("load project: %w", err)
	}
	if !ok || !project.HasFile() {
		return nil, 0, "", ErrNotFound
	}
	rc, size, err := a.objects.Get(ctx, project.BlobFileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, 0, "", ErrNotFound
		}
		return nil, 0, "", fmt.Errorf("open blob: %w", err)
	}
	return rc, size, project.OriginFileName, nil
}

// DetachFile removes the attachment link and its blob. An already-missing
// blob is not fatal.
func (a *App) DetachFile(ctx context.Context, projectID string) error {
	project, ok, err := a.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if project.HasFile() {
		if err := a.objects.Delete(ctx, project.BlobFileName); err != nil {
			slog.Warn("delete blob failed, continuing", "project_id", projectID, "blob", project.BlobFileName, "err", err)
		}
	}
	if err := a.store.SetProjectFile(projectID, "", "", ""); err != nil {
		if errors.Is(err, store.ErrNoRowsUpdated) {
			return ErrNotFound
		}
		return fmt.Errorf("unlink file: %w", err)
	}
	return nil
}

// ListBizClients lists contacts through the filter layer.
func (a *App) ListBizClients(filter store.BizFilter) ([]domain.BizClient, error) {
	clients, err := a.store.FilterBizClients(filter)
	if err != nil {
		return nil, fmt.Errorf("filter contacts: %w", err)
	}
	return clients, nil
}

// SaveBizClient stores or replaces a contact card.
func (a *App) SaveBizClient(c domain.BizClient) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := a.store.SaveBizClient(c); err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

// BizDetail returns one contact with its pipeline records.
func (a *App) BizDetail(id string) (domain.BizClient, []domain.Program, error) {
	client, ok, err := a.store.GetBizClient(id)
	if err != nil {
		return domain.BizClient{}, nil, fmt.Errorf("load contact: %w", err)
	}
	if !ok {
		return domain.BizClient{}, nil, ErrNotFound
	}
	programs, err := a.store.ListProgramsByClient(id)
	if err != nil {
		return domain.BizClient{}, nil, fmt.Errorf("list programs: %w", err)
	}
	return client, programs, nil
}

// CreateProgram starts a pipeline record for a contact.
func (a *App) CreateProgram(clientID string, status domain.ProgramStatus, title, description string) error {
	_, ok, err := a.store.GetBizClient(clientID)
	if err != nil {
		return fmt.Errorf("load contact: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	now := time.Now().Unix()
	program := domain.Program{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Status:      status,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.CreateProgram(program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// SetProgramStatus moves a pipeline record to a stage.
func (a *App) SetProgramStatus(id string, status domain.ProgramStatus) error {
	if err := a.store.SetProgramStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNoRowsUpdated) {
			return ErrNotFound
		}
		return fmt.Errorf("set program status: %w", err)
	}
	return nil
}
