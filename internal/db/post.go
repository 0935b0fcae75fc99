package db

import "time"

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Category 文章分类，支持通过 ParentID 构成层级结构。
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	Parent      *Category `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Title       string    `gorm:"size:255" json:"title"`
	Description string    `json:"description"`
	Slug        string    `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定自定义表名。
func (Category) TableName() string {
	return "categories"
}

// Post 定义了文章模型。
type Post struct {
	ID          uint           `gorm:"primaryKey"`
	Title       string         `gorm:"size:128;not null"`
	Description string         `gorm:"size:256"`
	Content     string         `gorm:"type:text"`
	Thumbnail   string         `gorm:"size:512"`
	Keywords    string         `gorm:"size:128"`
	Slug        string         `gorm:"size:128;uniqueIndex;not null"`
	CategoryID  *uint          `gorm:"index"`
	Category    *Category      `gorm:"constraint:OnDelete:SET NULL"`
	Status      string         `gorm:"size:10;not null;default:draft;index"`
	Headings    []Heading      `gorm:"constraint:OnDelete:CASCADE"`
	Analytics   *PostAnalytics `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName 指定自定义表名。
func (Post) TableName() string {
	return "posts"
}

// IsPublished reports whether the post is visible on the public API.
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Heading 文章目录中的一个标题，按 Order 排序。
type Heading struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	PostID uint   `gorm:"index;not null" json:"-"`
	Title  string `gorm:"size:255;not null" json:"title"`
	Slug   string `gorm:"size:255" json:"slug"`
	Level  int    `gorm:"not null;default:1" json:"level"`
	// order is a reserved word in SQL.
	Order int `gorm:"column:position;not null;default:0" json:"order"`
}

// TableName 指定自定义表名。
func (Heading) TableName() string {
	return "headings"
}
