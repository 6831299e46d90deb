package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/quiz"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

// QuestionRecord is the interchange shape for import, export and admin edits.
type QuestionRecord struct {
	Question      string   `json:"question" yaml:"question" validate:"required"`
	Options       []string `json:"options" yaml:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" yaml:"correct_answer" validate:"required"`
	Explanation   string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	Subject       string   `json:"subject" yaml:"subject" validate:"required"`
	Topic         string   `json:"topic" yaml:"topic" validate:"required"`
}

type ImportInput struct {
	Filename string
	Data     []byte
}

// ExportFilter selects at most one of difficulty, subject or topic.
type ExportFilter struct {
	Difficulty string
	Subject    string
	Topic      string
}

type ExportFile struct {
	Filename string
	Count    int
	Body     []byte
}

type QuestionBankService interface {
	Import(ctx context.Context, in ImportInput) (*types.QuestionImport, error)
	Export(ctx context.Context, f ExportFilter) (*ExportFile, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
	List(ctx context.Context, f repos.QuestionFilter) ([]*types.Question, int64, error)
	Create(ctx context.Context, rec QuestionRecord) (*types.Question, error)
	Update(ctx context.Context, id uuid.UUID, rec QuestionRecord) (*types.Question, error)
	ListImports(ctx context.Context, limit int) ([]*types.QuestionImport, error)
}

type questionBankService struct {
	db           *gorm.DB
	log          *logger.Logger
	questionRepo repos.QuestionRepo
	importRepo   repos.QuestionImportRepo
	validate     *validator.Validate
	now          func() time.Time
}

func NewQuestionBankService(db *gorm.DB, log *logger.Logger, questionRepo repos.QuestionRepo, importRepo repos.QuestionImportRepo) QuestionBankService {
	return &questionBankService{
		db:           db,
		log:          log.With("service", "QuestionBankService"),
		questionRepo: questionRepo,
		importRepo:   importRepo,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ParseQuestionFile decodes a JSON or YAML file holding a list of records or an
// object with a "questions" list. YAML is chosen by a .yaml/.yml extension.
func ParseQuestionFile(filename string, data []byte) ([]QuestionRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	var wrapper struct {
		Questions []QuestionRecord `json:"questions" yaml:"questions"`
	}
	var list []QuestionRecord
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		var probe yaml.Node
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		if len(probe.Content) > 0 && probe.Content[0].Kind == yaml.MappingNode {
			if err := yaml.Unmarshal(data, &wrapper); err != nil {
				return nil, fmt.Errorf("invalid yaml: %w", err)
			}
			return wrapper.Questions, nil
		}
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		return list, nil
	default:
		if data[0] == '{' {
			if err := json.Unmarshal(data, &wrapper); err != nil {
				return nil, fmt.Errorf("invalid json: %w", err)
			}
			return wrapper.Questions, nil
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return list, nil
	}
}

// validateRecord checks one record; index is its position in the batch.
func (qs *questionBankService) validateRecord(index int, rec *QuestionRecord) error {
	rec.normalize()
	if err := qs.validate.Struct(rec); err != nil {
		return invalidFromValidator("invalid_question_import", index, err)
	}
	for _, o := range rec.Options {
		if o == rec.CorrectAnswer {
			return nil
		}
	}
	return apierr.Invalid("invalid_question_import", apierr.FieldError{
		Index:   index,
		Field:   "correct_answer",
		Message: "must match one of the options",
	})
}

func (r *QuestionRecord) normalize() {
	r.Question = strings.TrimSpace(r.Question)
	r.CorrectAnswer = strings.TrimSpace(r.CorrectAnswer)
	r.Explanation = strings.TrimSpace(r.Explanation)
	r.Difficulty = strings.TrimSpace(r.Difficulty)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Topic = strings.TrimSpace(r.Topic)
	for i := range r.Options {
		r.Options[i] = strings.TrimSpace(r.Options[i])
	}
}

func (r QuestionRecord) toModel() *types.Question {
	return &types.Question{
		Question:      r.Question,
		Options:       datatypes.NewJSONType(r.Options),
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Difficulty:    quiz.Difficulty(r.Difficulty),
		Subject:       r.Subject,
		Topic:         r.Topic,
	}
}

func recordFromModel(q *types.Question) QuestionRecord {
	return QuestionRecord{
		Question:      q.Question,
		Options:       q.Options.Data(),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    string(q.Difficulty),
		Subject:       q.Subject,
		Topic:         q.Topic,
	}
}

// Import validates every record before writing any. One invalid record rejects the
// whole file. The bulk insert and its summary row commit together or not at all.
func (qs *questionBankService) Import(ctx context.Context, in ImportInput) (*types.QuestionImport, error) {
	records, err := ParseQuestionFile(in.Filename, in.Data)
	if err != nil {
		return nil, apierr.Invalid("invalid_question_file", apierr.FieldError{Index: -1, Field: "file", Message: err.Error()})
	}
	if len(records) == 0 {
		return nil, apierr.Invalid("invalid_question_file", apierr.FieldError{Index: -1, Field: "questions", Message: "must contain at least one question"})
	}
	for i := range records {
		if err := qs.validateRecord(i, &records[i]); err != nil {
			return nil, err
		}
	}

	summary := &types.QuestionImport{
		ID:         uuid.New(),
		Total:      len(records),
		SourceName: path.Base(strings.TrimSpace(in.Filename)),
	}
	if userID := ctxutil.UserID(ctx); userID != uuid.Nil {
		summary.ImportedBy = &userID
	}
	questions := make([]*types.Question, 0, len(records))
	for _, rec := range records {
		q := rec.toModel()
		q.ImportID = &summary.ID
		questions = append(questions, q)
		switch q.Difficulty {
		case quiz.DifficultyEasy:
			summary.Easy++
		case quiz.DifficultyMedium:
			summary.Medium++
		case quiz.DifficultyHard:
			summary.Hard++
		}
	}

	err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := qs.questionRepo.CreateBatch(txc, questions); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		if _, err := qs.importRepo.Create(txc, summary); err != nil {
			return fmt.Errorf("record import summary: %w", err)
		}
		return nil
	})
	if err != nil {
		qs.log.Error("question import failed", "error", err, "import_id", summary.ID, "total", summary.Total)
		return nil, apierr.From(err, "import_questions_failed")
	}
	qs.log.Info("questions imported", "import_id", summary.ID, "total", summary.Total,
		"easy", summary.Easy, "medium", summary.Medium, "hard", summary.Hard)
	return summary, nil
}

func (f ExportFilter) toRepo() (repos.QuestionFilter, string, error) {
	set := 0
	out := repos.QuestionFilter{}
	label := "all"
	if v := strings.ToLower(strings.TrimSpace(f.Difficulty)); v != "" {
		if !quiz.Difficulty(v).Valid() {
			return out, "", apierr.Invalid("invalid_filter", apierr.FieldError{Index: -1, Field: "difficulty", Message: "must be one of [easy medium hard]"})
		}
		set++
		out.Difficulty = quiz.Difficulty(v)
		label = v
	}
	if v := strings.TrimSpace(f.Subject); v != "" {
		set++
		out.Subject = v
		label = v
	}
	if v := strings.TrimSpace(f.Topic); v != "" {
		set++
		out.Topic = v
		label = v
	}
	if set > 1 {
		return out, "", apierr.New(http.StatusBadRequest, "too_many_filters",
			fmt.Errorf("at most one of difficulty, subject or topic may be set: %w", perr.ErrInvalidArgument))
	}
	return out, label, nil
}

func (qs *questionBankService) Export(ctx context.Context, f ExportFilter) (*ExportFile, error) {
	filter, label, err := f.toRepo()
	if err != nil {
		return nil, err
	}
	questions, err := qs.questionRepo.List(dbcOf(ctx), filter)
	if err != nil {
		return nil, apierr.From(err, "export_questions_failed")
	}
	records := make([]QuestionRecord, 0, len(questions))
	for _, q := range questions {
		records = append(records, recordFromModel(q))
	}
	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, apierr.From(err, "export_questions_failed")
	}
	return &ExportFile{
		Filename: fmt.Sprintf("questions-%s-%s.json", slugify(label), qs.now().Format("20060102")),
		Count:    len(records),
		Body:     body,
	}, nil
}

// BulkDelete removes ids in one transaction; either all matching rows go or none do.
func (qs *questionBankService) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apierr.Invalid("invalid_ids", apierr.FieldError{Index: -1, Field: "ids", Message: "must not be empty"})
	}
	var deleted int64
	err := qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := qs.questionRepo.DeleteByIDs(dbctx.Context{Ctx: ctx, Tx: tx}, ids)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		qs.log.Error("bulk delete failed", "error", err, "count", len(ids))
		return 0, apierr.From(err, "delete_questions_failed")
	}
	qs.log.Info("questions deleted", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

func (qs *questionBankService) List(ctx context.Context, f repos.QuestionFilter) ([]*types.Question, int64, error) {
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return nil, 0, apierr.Invalid("invalid_filter", apierr.FieldError{Index: -1, Field: "difficulty", Message: "must be one of [easy medium hard]"})
	}
	questions, err := qs.questionRepo.List(dbcOf(ctx), f)
	if err != nil {
		return nil, 0, apierr.From(err, "list_questions_failed")
	}
	total, err := qs.questionRepo.Count(dbcOf(ctx), f)
	if err != nil {
		return nil, 0, apierr.From(err, "list_questions_failed")
	}
	return questions, total, nil
}

func (qs *questionBankService) Create(ctx context.Context, rec QuestionRecord) (*types.Question, error) {
	if err := qs.validateRecord(-1, &rec); err != nil {
		return nil, err
	}
	q, err := qs.questionRepo.Create(dbcOf(ctx), rec.toModel())
	if err != nil {
		return nil, apierr.From(err, "create_question_failed")
	}
	return q, nil
}

func (qs *questionBankService) Update(ctx context.Context, id uuid.UUID, rec QuestionRecord) (*types.Question, error) {
	if err := qs.validateRecord(-1, &rec); err != nil {
		return nil, err
	}
	q, err := qs.questionRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "update_question_failed")
	}
	if q == nil {
		return nil, notFound("question_not_found", "question")
	}
	next := rec.toModel()
	next.ID = q.ID
	next.ImportID = q.ImportID
	next.CreatedAt = q.CreatedAt
	if err := qs.questionRepo.Save(dbcOf(ctx), next); err != nil {
		return nil, apierr.From(err, "update_question_failed")
	}
	return next, nil
}

func (qs *questionBankService) ListImports(ctx context.Context, limit int) ([]*types.QuestionImport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := qs.importRepo.ListRecent(dbcOf(ctx), limit)
	if err != nil {
		return nil, apierr.From(err, "list_imports_failed")
	}
	return out, nil
}
