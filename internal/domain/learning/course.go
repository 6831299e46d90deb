package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubCourse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
}

type CourseModule struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	SubCourses []SubCourse `json:"subCourses"`
}

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Category    string    `gorm:"column:category;index" json:"category"`
	Level       string    `gorm:"column:level" json:"level"`
	CoverKey    string    `gorm:"column:cover_key" json:"-"`
	CoverURL    string    `gorm:"column:cover_url" json:"cover_url,omitempty"`
	Published   bool      `gorm:"column:published;not null;default:false;index" json:"published"`

	Modules datatypes.JSONType[[]CourseModule] `gorm:"column:modules" json:"modules"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// UnitKey is the completion-map key for one sub-course.
func UnitKey(moduleID, subCourseID string) string {
	return moduleID + "_" + subCourseID
}

// TotalUnits is the number of addressable sub-courses across all modules.
func (c *Course) TotalUnits() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules.Data() {
		n += len(m.SubCourses)
	}
	return n
}

// HasUnit reports whether key names a real (module, sub-course) pair.
func (c *Course) HasUnit(key string) bool {
	if c == nil {
		return false
	}
	for _, m := range c.Modules.Data() {
		for _, s := range m.SubCourses {
			if UnitKey(m.ID, s.ID) == key {
				return true
			}
		}
	}
	return false
}
