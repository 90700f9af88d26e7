package store

import (
	"errors"

	"taskdeck/pkg/domain"
)

var (
	// ErrDuplicateUser indicates a sign-up collided with an existing login name.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrNoRowsUpdated indicates an update targeted an id that does not exist.
	// Callers use it to distinguish "not found" from a storage fault.
	ErrNoRowsUpdated = errors.New("no rows updated")
)

// BizOrder selects the sort column for contact listings.
type BizOrder string

const (
	BizOrderCreated BizOrder = "created"
	BizOrderUpdated BizOrder = "updated"
)

// ProjectFilter holds optional dashboard predicates. Nil/empty fields are
// no-ops, never "match nothing".
type ProjectFilter struct {
	Category   *domain.ProjectCategory
	Priority   *domain.ProjectPriority
	Query      string
	DateFilter domain.DateFilter
	Offset     int
	Limit      int
}

// BizFilter holds optional contact predicates.
type BizFilter struct {
	Query   string
	OrderBy BizOrder
	Offset  int
	Limit   int
}

// Store defines persistence operations for users, threads, projects, and
// business contacts.
type Store interface {
	// users
	CreateUser(domain.User) error
	GetUserByName(name string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// threads
	GetThreadByUser(userID string) (domain.Thread, bool, error)
	SaveThread(domain.Thread) error

	// projects
	FilterProjects(ProjectFilter) ([]domain.Project, error)
	GetProject(id string) (domain.Project, bool, error)
	PutProject(domain.Project) (domain.Project, error)
	SetProjectFile(id, fileID, blobName, originName string) error
	DeleteProject(id string) (bool, error)

	// business contacts
	FilterBizClients(BizFilter) ([]domain.BizClient, error)
	GetBizClient(id string) (domain.BizClient, bool, error)
	SaveBizClient(domain.BizClient) error
	ListProgramsByClient(clientID string) ([]domain.Program, error)
	CreateProgram(domain.Program) error
	SetProgramStatus(id string, status domain.ProgramStatus) error
}
