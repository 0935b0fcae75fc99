package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/blogpulse/internal/config"
	"github.com/blogpulse/internal/db"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/service"
	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/gorm"
)

type categorySeed struct {
	name   string
	slug   string
	parent string
}

var categorySeeds = []categorySeed{
	{name: "Backend", slug: "backend"},
	{name: "Go", slug: "go", parent: "backend"},
	{name: "Databases", slug: "databases", parent: "backend"},
	{name: "Frontend", slug: "frontend"},
	{name: "Life", slug: "life"},
}

// 测试数据生成器
func main() {
	count := flag.Int("posts", 20, "number of posts to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	// 初始化数据库
	if err := db.Init(db.Options{
		Driver:      cfg.DatabaseDriver,
		Path:        cfg.DatabasePath,
		DSN:         cfg.DatabaseDSN,
		ReplicaDSNs: cfg.DatabaseReplicaDSNs,
	}); err != nil {
		logging.Log.WithError(err).Fatal("数据库初始化失败")
	}

	ctx := context.Background()
	categories, err := seedCategories(ctx, db.DB)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to seed categories")
	}

	posts, err := seedPosts(ctx, service.NewPostService(db.DB), categories, *count)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to seed posts")
	}

	logging.Log.WithField("categories", len(categories)).WithField("posts", len(posts)).Info("测试数据生成完成")
}

// seedCategories 按 slug 幂等地创建分类，父分类先于子分类创建。
func seedCategories(ctx context.Context, gdb *gorm.DB) ([]db.Category, error) {
	bySlug := make(map[string]db.Category, len(categorySeeds))
	out := make([]db.Category, 0, len(categorySeeds))

	for _, seed := range categorySeeds {
		category := db.Category{
			Name:        seed.name,
			Title:       seed.name,
			Description: fmt.Sprintf("Posts about %s", strings.ToLower(seed.name)),
			Slug:        seed.slug,
		}
		if seed.parent != "" {
			parent, ok := bySlug[seed.parent]
			if !ok {
				return nil, fmt.Errorf("parent category %s must be seeded before %s", seed.parent, seed.slug)
			}
			category.ParentID = &parent.ID
		}

		if err := gdb.WithContext(ctx).
			Where(db.Category{Slug: seed.slug}).
			Attrs(category).
			FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		bySlug[seed.slug] = category
		out = append(out, category)
	}
	return out, nil
}

// seedPosts 通过 PostService 创建文章，确保每篇都带统计行与目录。
func seedPosts(ctx context.Context, posts *service.PostService, categories []db.Category, count int) ([]db.Post, error) {
	now := time.Now()
	created := make([]db.Post, 0, count)

	for i := 0; len(created) < count; i++ {
		if i > count*3 {
			return created, fmt.Errorf("gave up after %d attempts, created %d posts", i, len(created))
		}

		title := fakeTitle()
		input := service.PostInput{
			Title:       title,
			Description: fakeSentence(12),
			Content:     fakeMarkdown(title),
			Thumbnail:   gofakeit.URL(),
			Keywords:    strings.Join([]string{gofakeit.Word(), gofakeit.Word(), gofakeit.Word()}, ","),
			Slug:        fmt.Sprintf("%s-%s", title, gofakeit.RandomString([]string{"notes", "guide", "log", "draft", "tips"})),
			Status:      db.PostStatusPublished,
			CreatedAt:   gofakeit.DateRange(now.AddDate(-1, 0, 0), now),
		}
		if gofakeit.Float32() < 0.15 {
			input.Status = db.PostStatusDraft
		}
		if len(categories) > 0 && gofakeit.Bool() {
			category := categories[gofakeit.Number(0, len(categories)-1)]
			input.CategoryID = &category.ID
		}

		post, err := posts.Create(ctx, input)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
				continue
			}
			return created, err
		}
		created = append(created, *post)
	}
	return created, nil
}

func fakeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = gofakeit.Word()
	}
	return words
}

func fakeTitle() string {
	words := fakeWords(gofakeit.Number(3, 6))
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func fakeSentence(n int) string {
	return fakeTitle() + " " + strings.Join(fakeWords(n), " ") + "."
}

func fakeMarkdown(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", title, fakeSentence(20))
	sections := gofakeit.Number(2, 4)
	for s := 0; s < sections; s++ {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", fakeTitle(), fakeSentence(30))
		if gofakeit.Bool() {
			fmt.Fprintf(&b, "### %s\n\n- %s\n- %s\n\n", fakeTitle(), fakeSentence(6), fakeSentence(6))
		}
	}
	return b.String()
}
