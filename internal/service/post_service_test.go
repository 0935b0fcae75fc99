package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blogpulse/internal/db"
)

func TestCreatePostCreatesAnalyticsAndHeadings(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(context.Background(), PostInput{
		Title:   "Hello World",
		Content: "# Intro\n\ntext\n\n## Details\n\nmore\n\n## Details\n",
		Status:  db.PostStatusPublished,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Fatalf("expected derived slug hello-world, got %q", post.Slug)
	}

	stats := loadAnalytics(t, gdb, post.ID)
	if stats.Views != 0 || stats.Impressions != 0 || stats.Clicks != 0 || stats.ClickThroughRate != 0 {
		t.Fatalf("expected zeroed analytics, got %+v", stats)
	}

	headings, err := svc.Headings(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("headings failed: %v", err)
	}
	want := []db.Heading{
		{Title: "Intro", Slug: "intro", Level: 1, Order: 1},
		{Title: "Details", Slug: "details", Level: 2, Order: 2},
		{Title: "Details", Slug: "details-1", Level: 2, Order: 3},
	}
	if len(headings) != len(want) {
		t.Fatalf("expected %d headings, got %d", len(want), len(headings))
	}
	for i, h := range headings {
		if h.Title != want[i].Title || h.Slug != want[i].Slug || h.Level != want[i].Level || h.Order != want[i].Order {
			t.Fatalf("heading %d mismatch: got %+v want %+v", i, h, want[i])
		}
	}
}

func TestCreatePostRollsBackOnDuplicateSlug(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)
	createPublishedPost(t, svc, "Same Title", "# A")

	if _, err := svc.Create(context.Background(), PostInput{Title: "Same Title", Content: "# B"}); err == nil {
		t.Fatalf("expected duplicate slug to fail")
	}

	var posts, analytics, headings int64
	gdb.Model(&db.Post{}).Count(&posts)
	gdb.Model(&db.PostAnalytics{}).Count(&analytics)
	gdb.Model(&db.Heading{}).Count(&headings)
	if posts != 1 || analytics != 1 || headings != 1 {
		t.Fatalf("expected rollback to leave 1/1/1 rows, got posts=%d analytics=%d headings=%d", posts, analytics, headings)
	}
}

func TestCreatePostValidatesInput(t *testing.T) {
	svc := NewPostService(setupTestDB(t))

	if _, err := svc.Create(context.Background(), PostInput{Title: "  "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if _, err := svc.Create(context.Background(), PostInput{Title: "x", Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListReturnsPublishedNewestFirst(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)
	ctx := context.Background()

	category := db.Category{Name: "Go", Slug: "go"}
	if err := gdb.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	inputs := []PostInput{
		{Title: "Older", Status: db.PostStatusPublished, CreatedAt: base, CategoryID: &category.ID},
		{Title: "Newer", Status: db.PostStatusPublished, CreatedAt: base.Add(time.Hour)},
		{Title: "Draft", Status: db.PostStatusDraft, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %q failed: %v", in.Title, err)
		}
	}

	posts, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(posts))
	}
	if posts[0].Title != "Newer" || posts[1].Title != "Older" {
		t.Fatalf("unexpected order: %q, %q", posts[0].Title, posts[1].Title)
	}
	if posts[1].Category == nil || posts[1].Category.Slug != "go" {
		t.Fatalf("expected category preloaded, got %+v", posts[1].Category)
	}
	if posts[0].Analytics == nil {
		t.Fatalf("expected analytics preloaded")
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)
	if _, err := svc.Create(context.Background(), PostInput{Title: "Hidden"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, slug := range []string{"missing", "hidden", ""} {
		if _, err := svc.GetBySlug(context.Background(), slug); !errors.Is(err, ErrPostNotFound) {
			t.Fatalf("slug %q: expected ErrPostNotFound, got %v", slug, err)
		}
	}
	if _, err := svc.IDBySlug(context.Background(), "hidden"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected draft id lookup to fail, got %v", err)
	}
}

func TestGetBySlugLoadsRelations(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)
	created := createPublishedPost(t, svc, "Deep Dive", "## Two\n\n# One\n")

	post, err := svc.GetBySlug(context.Background(), "deep-dive")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if post.ID != created.ID || post.Analytics == nil {
		t.Fatalf("unexpected post: %+v", post)
	}
	if len(post.Headings) != 2 || post.Headings[0].Title != "Two" || post.Headings[1].Title != "One" {
		t.Fatalf("expected headings in document order, got %+v", post.Headings)
	}
}

func TestHeadingsUnknownSlugIsEmpty(t *testing.T) {
	svc := NewPostService(setupTestDB(t))

	headings, err := svc.Headings(context.Background(), "nope")
	if err != nil {
		t.Fatalf("headings failed: %v", err)
	}
	if headings == nil || len(headings) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", headings)
	}
}

func TestDeleteRemovesDependents(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPostService(gdb)
	post := createPublishedPost(t, svc, "Doomed", "# H")
	if _, err := NewAnalyticsService(gdb).RegisterView(context.Background(), post.ID, "1.2.3.4"); err != nil {
		t.Fatalf("register view failed: %v", err)
	}

	if err := svc.Delete(context.Background(), post.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	for name, model := range map[string]any{
		"posts":          &db.Post{},
		"post_analytics": &db.PostAnalytics{},
		"post_views":     &db.PostView{},
		"headings":       &db.Heading{},
	} {
		var count int64
		gdb.Model(model).Count(&count)
		if count != 0 {
			t.Fatalf("expected %s to be empty, got %d", name, count)
		}
	}

	if err := svc.Delete(context.Background(), post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound on second delete, got %v", err)
	}
}
