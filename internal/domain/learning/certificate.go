package learning

import (
	"time"

	"github.com/google/uuid"
)

type CertificateState string

const (
	CertificateNotCompleted           CertificateState = "not_completed"
	CertificateCompletedNoCertificate CertificateState = "completed_no_certificate"
	CertificateCompletedWithCert      CertificateState = "completed_with_certificate"
)

// Certificate is keyed by its public verification id (IOF-XXXXXXXX).
type Certificate struct {
	ID          string    `gorm:"primaryKey;size:16" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cert_user_course" json:"user_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cert_user_course" json:"course_id"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	CourseTitle string    `gorm:"column:course_title;not null" json:"course_title"`
	CompletedAt time.Time `gorm:"column:completed_at;not null" json:"completed_at"`
	GeneratedAt time.Time `gorm:"column:generated_at;not null" json:"generated_at"`
	ImageKey    string    `gorm:"column:image_key" json:"-"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url,omitempty"`
}

func (Certificate) TableName() string { return "certificates" }
