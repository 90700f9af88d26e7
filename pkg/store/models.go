package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	UserName     string
	UserNickname string
	UserType     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ThreadModel struct {
	ID        string         `gorm:"primaryKey"`
	UserID    string         `gorm:"not null;index"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null"`
	Summary   string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ProjectModel struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	Summary        string
	Content        string `gorm:"type:text"`
	Priority       string `gorm:"not null"`
	Category       string `gorm:"not null"`
	StartDate      int64  `gorm:"not null"`
	EndDate        int64  `gorm:"not null;index"`
	FileID         string
	BlobFileName   string
	OriginFileName string
	CreatedAt      int64 `gorm:"not null;index"`
	UpdatedAt      int64 `gorm:"not null"`
}

type BizClientModel struct {
	ID             string         `gorm:"primaryKey"`
	Card           datatypes.JSON `gorm:"type:jsonb;not null"`
	Category       string
	BlobFileName   string
	OriginFileName string
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null;index"`
}

type ProgramModel struct {
	ID          string `gorm:"primaryKey"`
	ClientID    string `gorm:"index"`
	Status      string `gorm:"not null"`
	Title       string
	Description string
	CreatedAt   int64 `gorm:"not null"`
	UpdatedAt   int64 `gorm:"not null"`
}
