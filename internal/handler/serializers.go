package handler

import (
	"time"

	"github.com/blogpulse/internal/db"
)

type categoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryDetail struct {
	ID          uint   `json:"id"`
	ParentID    *uint  `json:"parent_id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

type postListItem struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	Thumbnail   string       `json:"thumbnail"`
	Category    *categoryRef `json:"category"`
	Views       uint64       `json:"views"`
}

type postDetail struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	ContentHTML string          `json:"content_html"`
	Thumbnail   string          `json:"thumbnail"`
	Keywords    string          `json:"keywords"`
	Slug        string          `json:"slug"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Category    *categoryDetail `json:"category"`
	Headings    []db.Heading    `json:"headings"`
	Views       uint64          `json:"views"`
}

func viewsOf(post db.Post) uint64 {
	if post.Analytics == nil {
		return 0
	}
	return post.Analytics.Views
}

func newPostListItem(post db.Post) postListItem {
	item := postListItem{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Slug:        post.Slug,
		Thumbnail:   post.Thumbnail,
		Views:       viewsOf(post),
	}
	if post.Category != nil {
		item.Category = &categoryRef{Name: post.Category.Name, Slug: post.Category.Slug}
	}
	return item
}

func newPostDetail(post db.Post, contentHTML string) postDetail {
	detail := postDetail{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Content:     post.Content,
		ContentHTML: contentHTML,
		Thumbnail:   post.Thumbnail,
		Keywords:    post.Keywords,
		Slug:        post.Slug,
		Status:      post.Status,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
		Headings:    post.Headings,
		Views:       viewsOf(post),
	}
	if detail.Headings == nil {
		detail.Headings = []db.Heading{}
	}
	if c := post.Category; c != nil {
		detail.Category = &categoryDetail{
			ID:          c.ID,
			ParentID:    c.ParentID,
			Name:        c.Name,
			Title:       c.Title,
			Description: c.Description,
			Slug:        c.Slug,
		}
	}
	return detail
}
