package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogpulse/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound  = errors.New("post does not exist")
	ErrTitleRequired = errors.New("post title is required")
	ErrInvalidStatus = errors.New("post status must be draft or published")
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title       string
	Description string
	Content     string
	Thumbnail   string
	Keywords    string
	Slug        string // derived from Title when empty
	CategoryID  *uint
	Status      string // draft when empty
	// Headings overrides the table of contents; when nil it is extracted from Content.
	Headings  []db.Heading
	CreatedAt time.Time
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// List returns published posts with category and analytics, newest first.
func (s *PostService) List(ctx context.Context) ([]db.Post, error) {
	var posts []db.Post
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Analytics").
		Where("status = ?", db.PostStatusPublished).
		Order("created_at desc, id desc").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetBySlug fetches a published post with category, headings and analytics.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*db.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrPostNotFound
	}

	var post db.Post
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Analytics").
		Preload("Headings", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc, id asc") }).
		Where("slug = ? AND status = ?", slug, db.PostStatusPublished).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Headings returns the ordered table of contents, empty for an unknown slug.
func (s *PostService) Headings(ctx context.Context, slug string) ([]db.Heading, error) {
	headings := []db.Heading{}
	if err := s.db.WithContext(ctx).
		Model(&db.Heading{}).
		Joins("JOIN posts ON posts.id = headings.post_id").
		Where("posts.slug = ? AND posts.status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		Order("headings.position asc, headings.id asc").
		Find(&headings).Error; err != nil {
		return nil, err
	}
	return headings, nil
}

// Create persists a post together with its analytics row and headings in one transaction.
func (s *PostService) Create(ctx context.Context, input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = db.PostStatusDraft
	}
	if status != db.PostStatusDraft && status != db.PostStatusPublished {
		return nil, ErrInvalidStatus
	}

	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, fmt.Errorf("cannot derive slug from title %q", title)
	}

	headings := input.Headings
	if headings == nil {
		headings = ExtractHeadings(input.Content)
	}

	post := db.Post{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Content:     input.Content,
		Thumbnail:   strings.TrimSpace(input.Thumbnail),
		Keywords:    strings.TrimSpace(input.Keywords),
		Slug:        slug,
		CategoryID:  input.CategoryID,
		Status:      status,
		CreatedAt:   input.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category", "Headings", "Analytics").Create(&post).Error; err != nil {
			return err
		}

		analytics := db.PostAnalytics{PostID: post.ID}
		if err := tx.Create(&analytics).Error; err != nil {
			return err
		}
		post.Analytics = &analytics

		if len(headings) == 0 {
			return nil
		}
		rows := make([]db.Heading, len(headings))
		for i, h := range headings {
			rows[i] = db.Heading{
				PostID: post.ID,
				Title:  strings.TrimSpace(h.Title),
				Slug:   h.Slug,
				Level:  h.Level,
				Order:  h.Order,
			}
			if rows[i].Slug == "" {
				rows[i].Slug = Slugify(rows[i].Title)
			}
			if rows[i].Order == 0 {
				rows[i].Order = i + 1
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		post.Headings = rows
		return nil
	}); err != nil {
		return nil, err
	}

	return &post, nil
}

// Delete removes a post with its analytics, views and headings.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db.PostAnalytics{}, &db.PostView{}, &db.Heading{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&db.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// IDBySlug resolves a published post id, used by the click endpoint.
func (s *PostService) IDBySlug(ctx context.Context, slug string) (uint, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).
		Select("id").
		Where("slug = ? AND status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, err
	}
	return post.ID, nil
}
