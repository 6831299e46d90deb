package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/gcp"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/markdown"
)

const excerptLength = 200

type PostInput struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Slug      string   `json:"slug" validate:"omitempty,max=120"`
	Excerpt   string   `json:"excerpt" validate:"max=500"`
	Body      string   `json:"body" validate:"required"`
	Tags      []string `json:"tags" validate:"max=20,dive,max=40"`
	Published bool     `json:"published"`
}

type CommentInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type PostView struct {
	*types.BlogPost
	Comments []*types.BlogComment `json:"comments"`
}

type BlogService interface {
	ListPublished(ctx context.Context, tag string, limit, offset int) ([]*types.BlogPost, error)
	ListAll(ctx context.Context) ([]*types.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*PostView, error)
	Create(ctx context.Context, in PostInput) (*types.BlogPost, error)
	Update(ctx context.Context, id uuid.UUID, in PostInput) (*types.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.BlogPost, error)
	AddComment(ctx context.Context, postID uuid.UUID, in CommentInput) (*types.BlogComment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type blogService struct {
	db          *gorm.DB
	log         *logger.Logger
	postRepo    repos.BlogPostRepo
	commentRepo repos.BlogCommentRepo
	md          *markdown.Renderer
	bucket      gcp.BucketService
	validate    *validator.Validate
	now         func() time.Time
}

// NewBlogService wires the blog. bucket may be nil, which disables cover uploads.
func NewBlogService(
	db *gorm.DB,
	log *logger.Logger,
	postRepo repos.BlogPostRepo,
	commentRepo repos.BlogCommentRepo,
	md *markdown.Renderer,
	bucket gcp.BucketService,
) BlogService {
	return &blogService{
		db:          db,
		log:         log.With("service", "BlogService"),
		postRepo:    postRepo,
		commentRepo: commentRepo,
		md:          md,
		bucket:      bucket,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// slugify lowercases s and collapses every run of non-alphanumerics into one dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "post"
	}
	return out
}

// excerptOf is the first excerptLength runes of the markdown source, whitespace collapsed.
func excerptOf(body string) string {
	flat := strings.Join(strings.Fields(body), " ")
	r := []rune(flat)
	if len(r) <= excerptLength {
		return flat
	}
	return strings.TrimSpace(string(r[:excerptLength])) + "…"
}

func (s *blogService) ListPublished(ctx context.Context, tag string, limit, offset int) ([]*types.BlogPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.postRepo.List(dbcOf(ctx), true, strings.ToLower(strings.TrimSpace(tag)), limit, offset)
	if err != nil {
		return nil, apierr.From(err, "list_posts_failed")
	}
	return out, nil
}

func (s *blogService) ListAll(ctx context.Context) ([]*types.BlogPost, error) {
	out, err := s.postRepo.List(dbcOf(ctx), false, "", 0, 0)
	if err != nil {
		return nil, apierr.From(err, "list_posts_failed")
	}
	return out, nil
}

func (s *blogService) GetBySlug(ctx context.Context, slug string) (*PostView, error) {
	p, err := s.postRepo.GetBySlug(dbcOf(ctx), strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, apierr.From(err, "get_post_failed")
	}
	if p == nil || (!p.Published && !isAdmin(ctx)) {
		return nil, notFound("post_not_found", "post")
	}
	comments, err := s.commentRepo.ListByPost(dbcOf(ctx), p.ID)
	if err != nil {
		return nil, apierr.From(err, "get_post_failed")
	}
	return &PostView{BlogPost: p, Comments: comments}, nil
}

// uniqueSlug appends -2, -3, ... to base until it finds a slug no other post holds.
// Soft-deleted posts keep their slug reserved.
func (s *blogService) uniqueSlug(dbc dbctx.Context, base string, selfID uuid.UUID) (string, error) {
	candidate := base
	for i := 2; i < 100; i++ {
		existing, err := s.postRepo.GetBySlug(dbc, candidate)
		if err != nil {
			return "", err
		}
		if existing != nil && existing.ID == selfID {
			return candidate, nil
		}
		if existing == nil {
			taken, err := s.postRepo.SlugExists(dbc, candidate)
			if err != nil {
				return "", err
			}
			if !taken {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

func (s *blogService) apply(ctx context.Context, p *types.BlogPost, in PostInput) error {
	if err := s.validate.Struct(in); err != nil {
		return invalidFromValidator("invalid_post", -1, err)
	}
	html, err := s.md.Render(in.Body)
	if err != nil {
		return err
	}
	base := slugify(in.Slug)
	if strings.TrimSpace(in.Slug) == "" {
		base = slugify(in.Title)
	}
	slug, err := s.uniqueSlug(dbcOf(ctx), base, p.ID)
	if err != nil {
		return err
	}
	tags := make([]string, 0, len(in.Tags))
	seen := map[string]bool{}
	for _, t := range in.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Slug = slug
	p.Body = in.Body
	p.BodyHTML = html
	p.Excerpt = strings.TrimSpace(in.Excerpt)
	if p.Excerpt == "" {
		p.Excerpt = excerptOf(in.Body)
	}
	p.Tags = datatypes.NewJSONType(tags)
	if in.Published && !p.Published {
		now := s.now()
		p.PublishedAt = &now
	}
	p.Published = in.Published
	return nil
}

func (s *blogService) Create(ctx context.Context, in PostInput) (*types.BlogPost, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}
	p := &types.BlogPost{AuthorID: rd.UserID, AuthorName: rd.DisplayName}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, apierr.From(err, "create_post_failed")
	}
	if _, err := s.postRepo.Create(dbcOf(ctx), p); err != nil {
		return nil, apierr.From(err, "create_post_failed")
	}
	s.log.Info("post created", "post_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *blogService) Update(ctx context.Context, id uuid.UUID, in PostInput) (*types.BlogPost, error) {
	p, err := s.postRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "update_post_failed")
	}
	if p == nil {
		return nil, notFound("post_not_found", "post")
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, apierr.From(err, "update_post_failed")
	}
	if err := s.postRepo.Save(dbcOf(ctx), p); err != nil {
		return nil, apierr.From(err, "update_post_failed")
	}
	return p, nil
}

func (s *blogService) Delete(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.commentRepo.DeleteByPost(dbc, id); err != nil {
			return err
		}
		ok, err := s.postRepo.Delete(dbc, id)
		found = ok
		return err
	})
	if err != nil {
		return apierr.From(err, "delete_post_failed")
	}
	if !found {
		return notFound("post_not_found", "post")
	}
	return nil
}

func (s *blogService) UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.BlogPost, error) {
	if s.bucket == nil {
		return nil, apierr.New(http.StatusNotImplemented, "uploads_disabled", fmt.Errorf("object storage not configured"))
	}
	p, err := s.postRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "upload_cover_failed")
	}
	if p == nil {
		return nil, notFound("post_not_found", "post")
	}
	ext, err := imageExt(filename)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("blog/%s/cover-%s%s", p.ID, uuid.NewString()[:8], ext)
	if err := s.bucket.UploadFile(dbcOf(ctx), gcp.BucketCategoryImage, key, r); err != nil {
		s.log.Error("blog cover upload failed", "error", err, "post_id", p.ID)
		return nil, apierr.From(err, "upload_cover_failed")
	}
	oldKey := p.CoverKey
	p.CoverKey = key
	p.CoverURL = s.bucket.GetPublicURL(gcp.BucketCategoryImage, key)
	if err := s.postRepo.Save(dbcOf(ctx), p); err != nil {
		return nil, apierr.From(err, "upload_cover_failed")
	}
	if oldKey != "" {
		if err := s.bucket.DeleteFile(dbcOf(ctx), gcp.BucketCategoryImage, oldKey); err != nil {
			s.log.Warn("delete old blog cover failed", "error", err, "key", oldKey)
		}
	}
	return p, nil
}

func (s *blogService) AddComment(ctx context.Context, postID uuid.UUID, in CommentInput) (*types.BlogComment, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}
	in.Body = strings.TrimSpace(in.Body)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidFromValidator("invalid_comment", -1, err)
	}
	p, err := s.postRepo.GetByID(dbcOf(ctx), postID)
	if err != nil {
		return nil, apierr.From(err, "add_comment_failed")
	}
	if p == nil || !p.Published {
		return nil, notFound("post_not_found", "post")
	}
	c := &types.BlogComment{PostID: p.ID, UserID: rd.UserID, AuthorName: rd.DisplayName, Body: in.Body}
	if _, err := s.commentRepo.Create(dbcOf(ctx), c); err != nil {
		return nil, apierr.From(err, "add_comment_failed")
	}
	return c, nil
}

// DeleteComment is allowed for the comment's author and for admins.
func (s *blogService) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	c, err := s.commentRepo.GetByID(dbcOf(ctx), commentID)
	if err != nil {
		return apierr.From(err, "delete_comment_failed")
	}
	if c == nil {
		return notFound("comment_not_found", "comment")
	}
	if c.UserID != userID && !isAdmin(ctx) {
		return apierr.New(http.StatusForbidden, "forbidden", fmt.Errorf("not the comment author: %w", perr.ErrForbidden))
	}
	if err := s.commentRepo.Delete(dbcOf(ctx), c.ID); err != nil {
		return apierr.From(err, "delete_comment_failed")
	}
	return nil
}
