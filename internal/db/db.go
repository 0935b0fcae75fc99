package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options selects the durable store backend.
type Options struct {
	Driver      string // sqlite or postgres
	Path        string // sqlite file path
	DSN         string // postgres DSN
	ReplicaDSNs []string
	LogLevel    logger.LogLevel
}

// Init 初始化数据库连接并执行自动迁移，结果保存在全局 DB 中。
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open 打开数据库连接并执行自动迁移。
// sqlite 路径为空时将回退到默认值 blogpulse.db。
func Open(opts Options) (*gorm.DB, error) {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var (
		gdb *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "blogpulse.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		gdb, err = gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig)
	case "postgres":
		gdb, err = gorm.Open(postgres.Open(opts.DSN), gormConfig)
		if err == nil && len(opts.ReplicaDSNs) > 0 {
			replicas := make([]gorm.Dialector, 0, len(opts.ReplicaDSNs))
			for _, dsn := range opts.ReplicaDSNs {
				replicas = append(replicas, postgres.Open(dsn))
			}
			err = gdb.Use(dbresolver.Register(dbresolver.Config{
				Replicas: replicas,
				Policy:   dbresolver.RandomPolicy{},
			}).SetConnMaxLifetime(30 * time.Minute))
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 自动迁移模式，为核心模型创建表。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&Category{},
		&Post{},
		&Heading{},
		&PostAnalytics{},
		&PostView{},
	)
}

// sqliteDSN enables foreign keys so cascades apply, and waits on locks instead of failing.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
