package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/blogpulse/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// One connection serialises writers; shared cache sqlite otherwise reports table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return gdb
}

func createPublishedPost(t *testing.T, svc *PostService, title, content string) *db.Post {
	t.Helper()

	post, err := svc.Create(context.Background(), PostInput{
		Title:   title,
		Content: content,
		Status:  db.PostStatusPublished,
	})
	if err != nil {
		t.Fatalf("failed to create post %q: %v", title, err)
	}
	return post
}

func loadAnalytics(t *testing.T, gdb *gorm.DB, postID uint) db.PostAnalytics {
	t.Helper()

	var stats db.PostAnalytics
	if err := gdb.Where("post_id = ?", postID).First(&stats).Error; err != nil {
		t.Fatalf("failed to load analytics for post %d: %v", postID, err)
	}
	return stats
}
