package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompletionMap is the authoritative per-(user, course) completion record.
// Completed entries are only ever added.
type CompletionMap struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_course" json:"user_id"`
	CourseID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_course" json:"course_id"`
	CertificateID    *string    `gorm:"column:certificate_id;index" json:"certificate_id,omitempty"`
	FirstCompletedAt *time.Time `gorm:"column:first_completed_at" json:"first_completed_at,omitempty"`
	Version          int        `gorm:"column:version;not null;default:0" json:"-"`

	Completed datatypes.JSONType[map[string]time.Time] `gorm:"column:completed" json:"completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CompletionMap) TableName() string { return "completed_sub_courses" }

func (m *CompletionMap) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Completed.Data() == nil {
		m.Completed = datatypes.NewJSONType(map[string]time.Time{})
	}
	return nil
}

// Count is N, the number of completed sub-courses.
func (m *CompletionMap) Count() int {
	if m == nil {
		return 0
	}
	return len(m.Completed.Data())
}

func (m *CompletionMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Completed.Data()[key]
	return ok
}

// HasCertificate reports whether a verification id is recorded.
func (m *CompletionMap) HasCertificate() bool {
	return m != nil && m.CertificateID != nil && *m.CertificateID != ""
}

// EnrollmentProgress is the denormalized percent; always derivable from CompletionMap.
type EnrollmentProgress struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"course_id"`
	Percent    int       `gorm:"column:percent;not null;default:0" json:"percent"`
	EnrolledAt time.Time `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (EnrollmentProgress) TableName() string { return "course_progress" }

func (p *EnrollmentProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.EnrolledAt.IsZero() {
		p.EnrolledAt = time.Now().UTC()
	}
	return nil
}
