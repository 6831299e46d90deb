package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	DisplayName     string    `gorm:"not null;column:display_name" json:"display_name"`
	Password        string    `gorm:"column:password" json:"-"`
	Role            string    `gorm:"not null;default:student;column:role" json:"role"`
	Provider        string    `gorm:"not null;default:password;column:provider" json:"provider"`
	ProviderSubject string    `gorm:"column:provider_subject;index" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Provider == "" {
		u.Provider = ProviderPassword
	}
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
