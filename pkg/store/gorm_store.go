package store

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"taskdeck/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{}, &ThreadModel{}, &ProjectModel{}, &BizClientModel{}, &ProgramModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateUser registers a new user. Duplicate login names fail with
// ErrDuplicateUser.
func (s *GormStore) CreateUser(u domain.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserModel{}).Where("name = ?", u.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUser
		}
		model := userToModel(u)
		return tx.Create(&model).Error
	})
}

// GetUserByName looks up a user by login name.
func (s *GormStore) GetUserByName(name string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("name = ?", name).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetThreadByUser returns the user's thread. Malformed stored messages fail
// with domain.ErrMalformedMessage.
func (s *GormStore) GetThreadByUser(userID string) (domain.Thread, bool, error) {
	var model ThreadModel
	if err := s.db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Thread{}, false, nil
		}
		return domain.Thread{}, false, err
	}
	thread, err := threadFromModel(model)
	if err != nil {
		return domain.Thread{}, false, err
	}
	return thread, true, nil
}

// SaveThread persists the full message array, refreshing updated_at, as a
// lookup-then-insert upsert in one transaction. Concurrent writers to the
// same thread are not mutually excluded; the last full-document write wins.
func (s *GormStore) SaveThread(t domain.Thread) error {
	raw, err := domain.EncodeMessages(t.Messages)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing ThreadModel
		err := tx.Where("id = ?", t.ID).First(&existing).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			createdAt := t.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			model := ThreadModel{
				ID:        t.ID,
				UserID:    t.UserID,
				Messages:  datatypes.JSON(raw),
				Summary:   t.Summary,
				CreatedAt: createdAt,
				UpdatedAt: now,
			}
			return tx.Create(&model).Error
		case err != nil:
			return err
		default:
			return tx.Model(&ThreadModel{}).Where("id = ?", t.ID).Updates(map[string]any{
				"messages":   datatypes.JSON(raw),
				"summary":    t.Summary,
				"updated_at": now,
			}).Error
		}
	})
}

// FilterProjects applies optional predicates and returns projects ordered by
// created_at descending.
func (s *GormStore) FilterProjects(filter ProjectFilter) ([]domain.Project, error) {
	tx := s.db.Model(&ProjectModel{})
	if filter.Category != nil {
		tx = tx.Where("category = ?", string(*filter.Category))
	}
	if filter.Priority != nil {
		tx = tx.Where("priority = ?", string(*filter.Priority))
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		tx = tx.Where("title LIKE ? OR summary LIKE ?", like, like)
	}
	if from, to, ok := dateWindow(filter.DateFilter, time.Now()); ok {
		tx = tx.Where("end_date BETWEEN ? AND ?", from, to)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var models []ProjectModel
	if err := tx.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		res = append(res, projectFromModel(m))
	}
	return res, nil
}

// GetProject retrieves a project.
func (s *GormStore) GetProject(id string) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return projectFromModel(model), true, nil
}

// PutProject inserts when the id is empty (defaulting priority/category) and
// otherwise rewrites every content field plus updated_at. File columns are
// owned by SetProjectFile and left untouched on update.
func (s *GormStore) PutProject(p domain.Project) (domain.Project, error) {
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
		model := projectToModel(p)
		if err := s.db.Create(&model).Error; err != nil {
			return domain.Project{}, err
		}
		return p, nil
	}
	res := s.db.Model(&ProjectModel{}).Where("id = ?", p.ID).Updates(map[string]any{
		"title":      p.Title,
		"summary":    p.Summary,
		"content":    p.Content,
		"priority":   string(p.Priority),
		"category":   string(p.Category),
		"start_date": p.StartDate,
		"end_date":   p.EndDate,
		"updated_at": now,
	})
	if res.Error != nil {
		return domain.Project{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Project{}, ErrNoRowsUpdated
	}
	p.UpdatedAt = now
	return p, nil
}

// SetProjectFile updates the attached-file reference. Empty values detach.
func (s *GormStore) SetProjectFile(id, fileID, blobName, originName string) error {
	res := s.db.Model(&ProjectModel{}).Where("id = ?", id).Updates(map[string]any{
		"file_id":          fileID,
		"blob_file_name":   blobName,
		"origin_file_name": originName,
		"updated_at":       time.Now().Unix(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

// DeleteProject removes the row. Deleting an absent id returns false without
// error; blob cleanup is the caller's responsibility.
func (s *GormStore) DeleteProject(id string) (bool, error) {
	res := s.db.Delete(&ProjectModel{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FilterBizClients loads contacts in the requested order and matches the
// free-text query against the decoded card payload. Matching happens after
// decode because the searchable fields live inside one JSONB document.
func (s *GormStore) FilterBizClients(filter BizFilter) ([]domain.BizClient, error) {
	order := "updated_at DESC"
	if filter.OrderBy == BizOrderCreated {
		order = "created_at DESC"
	}
	var models []BizClientModel
	if err := s.db.Order(order).Find(&models).Error; err != nil {
		return nil, err
	}
	matched := make([]domain.BizClient, 0, len(models))
	for _, m := range models {
		client, err := bizClientFromModel(m)
		if err != nil {
			return nil, err
		}
		if client.Card.MatchesQuery(filter.Query) {
			matched = append(matched, client)
		}
	}
	return paginateBizClients(matched, filter.Offset, filter.Limit), nil
}

// GetBizClient retrieves one contact.
func (s *GormStore) GetBizClient(id string) (domain.BizClient, bool, error) {
	var model BizClientModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.BizClient{}, false, nil
		}
		return domain.BizClient{}, false, err
	}
	client, err := bizClientFromModel(model)
	if err != nil {
		return domain.BizClient{}, false, err
	}
	return client, true, nil
}

// SaveBizClient stores or replaces a contact record.
func (s *GormStore) SaveBizClient(c domain.BizClient) error {
	raw, err := domain.EncodeBusinessCard(c.Card)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	model := BizClientModel{
		ID:             c.ID,
		Card:           datatypes.JSON(raw),
		Category:       c.Category,
		BlobFileName:   c.BlobFileName,
		OriginFileName: c.OriginFileName,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      now,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"card", "category", "blob_file_name", "origin_file_name", "updated_at"}),
	}).Create(&model).Error
}

// ListProgramsByClient returns pipeline records for a contact, oldest first.
func (s *GormStore) ListProgramsByClient(clientID string) ([]domain.Program, error) {
	var models []ProgramModel
	if err := s.db.Where("client_id = ?", clientID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Program, 0, len(models))
	for _, m := range models {
		res = append(res, programFromModel(m))
	}
	return res, nil
}

// CreateProgram records a new pipeline entry.
func (s *GormStore) CreateProgram(p domain.Program) error {
	model := programToModel(p)
	return s.db.Create(&model).Error
}

// SetProgramStatus moves a program to a stage. Stages are vocabulary, not a
// state machine, so no transition is rejected.
func (s *GormStore) SetProgramStatus(id string, status domain.ProgramStatus) error {
	res := s.db.Model(&ProgramModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().Unix(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

func paginateBizClients(items []domain.BizClient, offset, limit int) []domain.BizClient {
	if offset >= len(items) {
		return []domain.BizClient{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortProjectsNewestFirst(items []domain.Project) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		UserName:     u.UserName,
		UserNickname: u.UserNickname,
		UserType:     string(u.UserType),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	userType := domain.UserType(m.UserType)
	if userType == "" {
		userType = domain.UserStaff
	}
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		UserName:     m.UserName,
		UserNickname: m.UserNickname,
		UserType:     userType,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func threadFromModel(m ThreadModel) (domain.Thread, error) {
	msgs, err := domain.DecodeMessages(m.Messages)
	if err != nil {
		return domain.Thread{}, err
	}
	return domain.Thread{
		ID:        m.ID,
		UserID:    m.UserID,
		Messages:  msgs,
		Summary:   m.Summary,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func projectToModel(p domain.Project) ProjectModel {
	return ProjectModel{
		ID:             p.ID,
		Title:          p.Title,
		Summary:        p.Summary,
		Content:        p.Content,
		Priority:       string(p.Priority),
		Category:       string(p.Category),
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		FileID:         p.FileID,
		BlobFileName:   p.BlobFileName,
		OriginFileName: p.OriginFileName,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func projectFromModel(m ProjectModel) domain.Project {
	return domain.Project{
		ID:             m.ID,
		Title:          m.Title,
		Summary:        m.Summary,
		Content:        m.Content,
		Priority:       domain.ProjectPriority(m.Priority),
		Category:       domain.ProjectCategory(m.Category),
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		FileID:         m.FileID,
		BlobFileName:   m.BlobFileName,
		OriginFileName: m.OriginFileName,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func bizClientFromModel(m BizClientModel) (domain.BizClient, error) {
	card, err := domain.DecodeBusinessCard(m.Card)
	if err != nil {
		return domain.BizClient{}, err
	}
	return domain.BizClient{
		ID:             m.ID,
		Card:           card,
		Category:       m.Category,
		BlobFileName:   m.BlobFileName,
		OriginFileName: m.OriginFileName,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func programToModel(p domain.Program) ProgramModel {
	return ProgramModel{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Status:      string(p.Status),
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func programFromModel(m ProgramModel) domain.Program {
	return domain.Program{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Status:      domain.ProgramStatus(m.Status),
		Title:       m.Title,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
