package domain

import "time"

type UserType string

const (
	UserStaff    UserType = "staff"
	UserManager  UserType = "manager"
	UserDirector UserType = "director"
	UserAdmin    UserType = "admin"
)

type ProjectPriority string

const (
	PriorityLow      ProjectPriority = "low"
	PriorityMedium   ProjectPriority = "medium"
	PriorityHigh     ProjectPriority = "high"
	PriorityCritical ProjectPriority = "critical"
)

type ProjectCategory string

const (
	CategoryShortTerm ProjectCategory = "short_term"
	CategoryMidTerm   ProjectCategory = "mid_term"
	CategoryLongTerm  ProjectCategory = "long_term"
	CategoryForever   ProjectCategory = "forever"
)

type DateFilter string

const (
	DateFilterAll   DateFilter = "all"
	DateFilterWeek  DateFilter = "week"
	DateFilterMonth DateFilter = "month"
)

// ProgramStatus is an ordered vocabulary of pipeline stages. Any stage is
// reachable from any stage; there is no transition graph.
type ProgramStatus string

const (
	ProgramInterest    ProgramStatus = "interest"
	ProgramRequested   ProgramStatus = "requested"
	ProgramNegotiation ProgramStatus = "negotiation"
	ProgramSiteVisit   ProgramStatus = "site_visit"
	ProgramPreparation ProgramStatus = "preparation"
	ProgramExecution   ProgramStatus = "execution"
	ProgramCompleted   ProgramStatus = "completed"
)

type User struct {
	ID           string    `json:"u_id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	UserName     string    `json:"user_name"`
	UserNickname string    `json:"user_nickname"`
	UserType     UserType  `json:"user_type"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Project is a dashboard entry. Dates are epoch seconds.
type Project struct {
	ID       string          `json:"u_id"`
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Content  string          `json:"content"`
	Priority ProjectPriority `json:"priority"`
	Category ProjectCategory `json:"category"`

	StartDate int64 `json:"start_date"`
	EndDate   int64 `json:"end_date"`

	FileID         string `json:"file_id,omitempty"`
	BlobFileName   string `json:"file_name,omitempty"`
	OriginFileName string `json:"original_file_name,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Progress returns the elapsed share of the project interval as a percentage,
// clamped to [0, 100]. An empty or inverted interval counts as finished.
func (p Project) Progress(now time.Time) float64 {
	total := p.EndDate - p.StartDate
	if total <= 0 {
		return 100.0
	}
	elapsed := now.Unix() - p.StartDate
	if elapsed <= 0 {
		return 0.0
	}
	if elapsed >= total {
		return 100.0
	}
	return float64(elapsed) / float64(total) * 100.0
}

// HasFile reports whether an attachment is linked to the project.
func (p Project) HasFile() bool {
	return p.FileID != "" && p.BlobFileName != ""
}

type Company struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	EnglishName string `json:"english_name,omitempty"`
	Website     string `json:"website,omitempty"`
}

// BusinessCard is the semi-structured payload stored on a BizClient.
type BusinessCard struct {
	Name        string  `json:"name"`
	Role        string  `json:"role,omitempty"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	Email       string  `json:"email,omitempty"`
	Company     Company `json:"company"`
}

type BizClient struct {
	ID             string       `json:"u_id"`
	Card           BusinessCard `json:"biz_card"`
	Category       string       `json:"category"`
	BlobFileName   string       `json:"blob_file_name"`
	OriginFileName string       `json:"origin_file_name"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type Program struct {
	ID          string        `json:"u_id"`
	ClientID    string        `json:"client_u_id,omitempty"`
	Status      ProgramStatus `json:"status"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	CreatedAt   int64         `json:"created_at"`
	UpdatedAt   int64         `json:"updated_at"`
}

// ParseProjectPriority maps a wire value to a priority.
func ParseProjectPriority(raw string) (ProjectPriority, bool) {
	switch ProjectPriority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return ProjectPriority(raw), true
	}
	return "", false
}

// ParseProjectCategory maps a wire value to a category.
func ParseProjectCategory(raw string) (ProjectCategory, bool) {
	switch ProjectCategory(raw) {
	case CategoryShortTerm, CategoryMidTerm, CategoryLongTerm, CategoryForever:
		return ProjectCategory(raw), true
	}
	return "", false
}

// ParseDateFilter maps a wire value to a date filter.
func ParseDateFilter(raw string) (DateFilter, bool) {
	switch DateFilter(raw) {
	case DateFilterAll, DateFilterWeek, DateFilterMonth:
		return DateFilter(raw), true
	}
	return "", false
}

// ParseProgramStatus maps a wire value to a program stage.
func ParseProgramStatus(raw string) (ProgramStatus, bool) {
	switch ProgramStatus(raw) {
	case ProgramInterest, ProgramRequested, ProgramNegotiation,
		ProgramSiteVisit, ProgramPreparation, ProgramExecution, ProgramCompleted:
		return ProgramStatus(raw), true
	}
	return "", false
}

// ParseUserType maps a wire value to a user type.
func ParseUserType(raw string) (UserType, bool) {
	switch UserType(raw) {
	case UserStaff, UserManager, UserDirector, UserAdmin:
		return UserType(raw), true
	}
	return "", false
}
