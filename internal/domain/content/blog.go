package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BlogPost struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Excerpt     string     `gorm:"column:excerpt" json:"excerpt,omitempty"`
	Body        string     `gorm:"column:body;type:text;not null" json:"body"`
	BodyHTML    string     `gorm:"column:body_html;type:text" json:"body_html"`
	CoverKey    string     `gorm:"column:cover_key" json:"-"`
	CoverURL    string     `gorm:"column:cover_url" json:"cover_url,omitempty"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName  string     `gorm:"column:author_name" json:"author_name"`
	Published   bool       `gorm:"column:published;not null;default:false;index" json:"published"`
	PublishedAt *time.Time `gorm:"column:published_at;index" json:"published_at,omitempty"`

	Tags datatypes.JSONType[[]string] `gorm:"column:tags" json:"tags"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BlogPost) TableName() string { return "blog_posts" }

func (p *BlogPost) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type BlogComment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID     uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	Post       *BlogPost `gorm:"constraint:OnDelete:CASCADE;foreignKey:PostID;references:ID" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AuthorName string    `gorm:"column:author_name" json:"author_name"`
	Body       string    `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

func (BlogComment) TableName() string { return "blog_comments" }

func (c *BlogComment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
