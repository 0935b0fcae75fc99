package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/blogpulse/internal/cache"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/service"
	"github.com/gin-gonic/gin"
)

type clickRequest struct {
	Slug string `json:"slug"`
}

// ListPosts 返回已发布文章列表，每篇文章计一次曝光，无论是否命中缓存。
func (a *API) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	if payload, ok := a.cachedPayload(ctx, cache.PostListKey); ok {
		ids, err := listPayloadIDs(payload)
		if err == nil {
			a.impressions.Record(ctx, ids...)
			respondJSONBytes(c, payload)
			return
		}
		logging.Log.WithError(err).WithField("key", cache.PostListKey).Warn("cached post list is unreadable, rebuilding")
	}

	posts, err := a.posts.List(ctx)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}

	items := make([]postListItem, 0, len(posts))
	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		items = append(items, newPostListItem(post))
		ids = append(ids, post.ID)
	}

	payload, err := json.Marshal(items)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to encode posts")
		return
	}

	a.storePayload(ctx, cache.PostListKey, payload)
	a.impressions.Record(ctx, ids...)
	respondJSONBytes(c, payload)
}

// GetPost 返回文章详情，计一次曝光并异步登记浏览。
func (a *API) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	slug := strings.TrimSpace(c.Param("slug"))
	key := cache.PostDetailKey(slug)

	if payload, ok := a.cachedPayload(ctx, key); ok {
		id, err := detailPayloadID(payload)
		if err == nil && id != 0 {
			a.recordDetailRead(c, id)
			respondJSONBytes(c, payload)
			return
		}
		logging.Log.WithError(err).WithField("key", key).Warn("cached post detail is unreadable, rebuilding")
	}

	post, err := a.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, msgPostNotFound)
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to load post")
		return
	}

	contentHTML, err := service.RenderMarkdown(post.Content)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to render post")
		return
	}

	payload, err := json.Marshal(newPostDetail(*post, contentHTML))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to encode post")
		return
	}

	a.storePayload(ctx, key, payload)
	a.recordDetailRead(c, post.ID)
	respondJSONBytes(c, payload)
}

func (a *API) recordDetailRead(c *gin.Context, postID uint) {
	a.impressions.Record(c.Request.Context(), postID)
	a.views.Schedule(postID, c.ClientIP())
}

// ListHeadings 返回文章目录，未知文章返回空数组。
func (a *API) ListHeadings(c *gin.Context) {
	headings, err := a.posts.Headings(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to load headings")
		return
	}
	c.JSON(http.StatusOK, headings)
}

// IncrementClick 同步累加点击数并返回最新值。
func (a *API) IncrementClick(c *gin.Context) {
	var req clickRequest
	if !bindJSON(c, &req, msgSlugRequired) {
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		respondError(c, http.StatusBadRequest, msgSlugRequired)
		return
	}

	ctx := c.Request.Context()
	postID, err := a.posts.IDBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, msgPostNotFound)
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	stats, err := a.analytics.IncrementClicks(ctx, postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, msgPostNotFound)
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Click incremented successfully",
		"clicks":  stats.Clicks,
	})
}
