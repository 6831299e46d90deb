package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

const defaultBaseURL = "https://newsapi.org"

type Client interface {
	Everything(ctx context.Context, q Query) (*Result, error)
}

type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Language string
}

type Query struct {
	Q        string
	PageSize int
	Page     int
}

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

type Result struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("news api %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("news api %d", e.StatusCode)
}

type client struct {
	log  *logger.Logger
	http *resty.Client
	cfg  Config
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing NEWS_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &client{log: log.With("client", "NewsAPIClient"), http: rc, cfg: cfg}, nil
}

func (c *client) Everything(ctx context.Context, q Query) (*Result, error) {
	term := strings.TrimSpace(q.Q)
	if term == "" {
		return nil, fmt.Errorf("news api: query required")
	}
	params := map[string]string{
		"q":        term,
		"apiKey":   c.cfg.APIKey,
		"language": c.cfg.Language,
		"sortBy":   "publishedAt",
	}
	if q.PageSize > 0 {
		params["pageSize"] = fmt.Sprint(q.PageSize)
	}
	if q.Page > 0 {
		params["page"] = fmt.Sprint(q.Page)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("news api request: %w", err)
	}
	if resp.StatusCode() != 200 {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		_ = json.Unmarshal(resp.Body(), apiErr)
		c.log.Warn("News API request failed", "status", resp.StatusCode(), "code", apiErr.Code)
		return nil, apiErr
	}

	var out Result
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode news api response: %w", err)
	}
	if out.Articles == nil {
		out.Articles = []Article{}
	}
	return &out, nil
}
