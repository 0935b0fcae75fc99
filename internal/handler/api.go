package handler

import (
	"strings"
	"time"

	"github.com/blogpulse/internal/cache"
	"github.com/blogpulse/internal/counter"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultStoreTimeout = 200 * time.Millisecond

// Dependencies 汇总构建 API 所需的外部组件。
type Dependencies struct {
	DB      *gorm.DB
	Counter counter.Store
	Cache   cache.Cache
	// Views receives view registrations; nil disables view counting.
	Views        service.ViewScheduler
	CacheTTL     time.Duration
	StoreTimeout time.Duration
	APIKeys      []string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	posts        *service.PostService
	analytics    *service.AnalyticsService
	impressions  *service.ImpressionRecorder
	views        service.ViewScheduler
	cache        cache.Cache
	cacheTTL     time.Duration
	storeTimeout time.Duration
	apiKeys      map[string]struct{}
}

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Dependencies) *API {
	storeTimeout := deps.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	cacheTTL := deps.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}

	store := deps.Counter
	if store == nil {
		store = counter.NewMemoryStore()
	}
	responses := deps.Cache
	if responses == nil {
		responses = cache.NewMemoryCache()
	}
	views := deps.Views
	if views == nil {
		logging.Log.Warn("no view scheduler configured, views will not be counted")
		views = discardViews{}
	}

	keys := make(map[string]struct{}, len(deps.APIKeys))
	for _, key := range deps.APIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys[trimmed] = struct{}{}
		}
	}

	return &API{
		db:           deps.DB,
		posts:        service.NewPostService(deps.DB),
		analytics:    service.NewAnalyticsService(deps.DB),
		impressions:  service.NewImpressionRecorder(store, storeTimeout),
		views:        views,
		cache:        responses,
		cacheTTL:     cacheTTL,
		storeTimeout: storeTimeout,
		apiKeys:      keys,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Posts exposes the post service, used by seed tooling.
func (a *API) Posts() *service.PostService {
	return a.posts
}

type discardViews struct{}

func (discardViews) Schedule(uint, string) bool { return false }

// RegisterRoutes 注册需要 API-Key 的文章接口。
func (a *API) RegisterRoutes(r gin.IRouter) {
	posts := r.Group("/posts")
	posts.Use(a.APIKeyRequired())
	{
		posts.GET("/", a.ListPosts)
		posts.POST("/clicks/", a.IncrementClick)
		posts.GET("/:slug/", a.GetPost)
		posts.GET("/:slug/headings/", a.ListHeadings)
	}
}
