package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/dropvault/pkg/internal/model"
)

func newMemoryClient(t *testing.T) *Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &Client{DB: gdb}
}

// 服务启动依赖 Migrate 在空库上建表，首次运行不需要单独的迁移步骤.
func TestMigrateCreatesTablesOnFreshDatabase(t *testing.T) {
	client := newMemoryClient(t)

	if err := client.Migrate(&model.FileRecord{}, &model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{"file_records", "users"} {
		if !client.GetDB().Migrator().HasTable(table) {
			t.Errorf("table %s missing after migrate", table)
		}
	}

	// 迁移后立刻可写
	rec := model.FileRecord{Owner: "alice", StorageKey: "boot_000000000001.txt", OriginalName: "boot.txt"}
	if err := client.GetDB().Create(&rec).Error; err != nil {
		t.Fatalf("insert after migrate: %v", err)
	}
}

// Migrate 幂等，重复启动不报错.
func TestMigrateIsIdempotent(t *testing.T) {
	client := newMemoryClient(t)

	for range 2 {
		if err := client.Migrate(&model.FileRecord{}, &model.User{}); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
}
