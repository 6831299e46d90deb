package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

type Question struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Question      string     `gorm:"column:question;type:text;not null" json:"question"`
	CorrectAnswer string     `gorm:"column:correct_answer;not null" json:"correct_answer"`
	Explanation   string     `gorm:"column:explanation;type:text" json:"explanation,omitempty"`
	Difficulty    Difficulty `gorm:"column:difficulty;not null;index" json:"difficulty"`
	Subject       string     `gorm:"column:subject;not null;index" json:"subject"`
	Topic         string     `gorm:"column:topic;not null;index" json:"topic"`
	ImportID      *uuid.UUID `gorm:"type:uuid;column:import_id;index" json:"import_id,omitempty"`

	Options datatypes.JSONType[[]string] `gorm:"column:options" json:"options"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuestionImport summarises one successful bulk import.
type QuestionImport struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Total      int        `gorm:"column:total;not null" json:"total"`
	Easy       int        `gorm:"column:easy;not null" json:"easy"`
	Medium     int        `gorm:"column:medium;not null" json:"medium"`
	Hard       int        `gorm:"column:hard;not null" json:"hard"`
	SourceName string     `gorm:"column:source_name" json:"source_name,omitempty"`
	ImportedBy *uuid.UUID `gorm:"type:uuid;column:imported_by" json:"imported_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (QuestionImport) TableName() string { return "question_imports" }

func (i *QuestionImport) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description,omitempty"`
	Subject     string     `gorm:"column:subject;index" json:"subject"`
	Topic       string     `gorm:"column:topic" json:"topic,omitempty"`
	Difficulty  Difficulty `gorm:"column:difficulty" json:"difficulty,omitempty"`
	TimeLimit   int        `gorm:"column:time_limit_seconds;not null;default:0" json:"time_limit_seconds"`
	Published   bool       `gorm:"column:published;not null;default:false;index" json:"published"`

	QuestionIDs datatypes.JSONType[[]uuid.UUID] `gorm:"column:question_ids" json:"question_ids"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q *Quiz) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuizAttempt struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	QuizID   uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Score    int       `gorm:"column:score;not null" json:"score"`
	MaxScore int       `gorm:"column:max_score;not null" json:"max_score"`

	Answers datatypes.JSONType[map[string]string] `gorm:"column:answers" json:"answers"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }

func (a *QuizAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type LeaderboardEntry struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName  string    `gorm:"column:display_name" json:"display_name"`
	Points       int       `gorm:"column:points;not null;default:0;index" json:"points"`
	QuizzesTaken int       `gorm:"column:quizzes_taken;not null;default:0" json:"quizzes_taken"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LeaderboardEntry) TableName() string { return "leaderboard" }
