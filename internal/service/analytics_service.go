package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blogpulse/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidView 表示浏览登记缺少文章或访客地址。
var ErrInvalidView = errors.New("invalid post id or client address")

// AnalyticsService 负责文章浏览、曝光与点击计数的持久化。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// IncrementClicks 点击数加一，并在同一事务内重算点击率。
func (s *AnalyticsService) IncrementClicks(ctx context.Context, postID uint) (*db.PostAnalytics, error) {
	return s.bump(ctx, postID, "clicks", 1)
}

// IncrementImpressions 曝光数加一，并在同一事务内重算点击率。
func (s *AnalyticsService) IncrementImpressions(ctx context.Context, postID uint) (*db.PostAnalytics, error) {
	return s.bump(ctx, postID, "impressions", 1)
}

// AddImpressions 批量累加曝光数，供对账任务使用。文章不存在时返回 ErrPostNotFound。
func (s *AnalyticsService) AddImpressions(ctx context.Context, postID uint, n uint64) (*db.PostAnalytics, error) {
	return s.bump(ctx, postID, "impressions", n)
}

// column is always one of the literal names above, never user input.
func (s *AnalyticsService) bump(ctx context.Context, postID uint, column string, n uint64) (*db.PostAnalytics, error) {
	var stats db.PostAnalytics

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAnalyticsRow(tx, postID); err != nil {
			return err
		}

		if n > 0 {
			if err := tx.Model(&db.PostAnalytics{}).
				Where("post_id = ?", postID).
				Update(column, gorm.Expr(column+" + ?", n)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("post_id = ?", postID).First(&stats).Error; err != nil {
			return err
		}

		stats.ClickThroughRate = db.ClickThroughRate(stats.Clicks, stats.Impressions)
		return tx.Model(&db.PostAnalytics{}).
			Where("id = ?", stats.ID).
			Update("click_through_rate", stats.ClickThroughRate).Error
	}); err != nil {
		return nil, err
	}

	return &stats, nil
}

// RegisterView 按 (post_id, client_address) 去重登记浏览，首次登记时浏览数加一。
// 唯一索引是唯一的仲裁者，不做预先的存在性查询。
func (s *AnalyticsService) RegisterView(ctx context.Context, postID uint, clientAddress string) (bool, error) {
	address := strings.TrimSpace(clientAddress)
	if postID == 0 || address == "" {
		return false, ErrInvalidView
	}

	counted := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAnalyticsRow(tx, postID); err != nil {
			return err
		}

		view := db.PostView{PostID: postID, ClientAddress: address}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "client_address"}},
			DoNothing: true,
		}).Create(&view)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected != 1 {
			return nil
		}

		if err := tx.Model(&db.PostAnalytics{}).
			Where("post_id = ?", postID).
			Update("views", gorm.Expr("views + ?", 1)).Error; err != nil {
			return err
		}
		counted = true
		return nil
	}); err != nil {
		return false, err
	}

	return counted, nil
}

// StatsMap 返回指定文章的统计数据，未找到的文章不会出现在结果中。
func (s *AnalyticsService) StatsMap(ctx context.Context, postIDs []uint) (map[uint]db.PostAnalytics, error) {
	result := make(map[uint]db.PostAnalytics, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var stats []db.PostAnalytics
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&stats).Error; err != nil {
		return nil, err
	}
	for _, stat := range stats {
		result[stat.PostID] = stat
	}
	return result, nil
}

// ensureAnalyticsRow 确认文章存在，并在缺失时补建统计行。
func ensureAnalyticsRow(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&db.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoNothing: true,
	}).Create(&db.PostAnalytics{PostID: postID}).Error
}
