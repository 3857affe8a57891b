package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"worklog/internal/auth"
	"worklog/internal/jobs"
	"worklog/internal/worklog"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens Postgres for postgres:// URLs and key=value DSNs, and SQLite
// for sqlite:// or file: DSNs and bare *.db paths.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			zap.NewStdLog(log.Named("gorm")),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// one writer at a time; avoids SQLITE_BUSY between workers and requests
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("empty database url")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.Contains(dsn, ":memory:"):
		return openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database url %q", dsn)
	}
}

func openSQLite(dsn string) (gorm.Dialector, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000&_foreign_keys=on"
	}
	return sqlite.Open(dsn), nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&worklog.WorkLog{},
		&worklog.Task{},
		&jobs.Job{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	stmts := []string{
		`create index if not exists idx_tasks_log_position on tasks(work_log_id, position);`,
		`create index if not exists idx_tasks_user_created on tasks(user_id, created_at desc);`,
		`create index if not exists idx_work_logs_user_date_desc on work_logs(user_id, date desc);`,
	}
	if gdb.Dialector.Name() == "postgres" {
		stmts = append(stmts,
			// tag filter (GIN for text[])
			`create index if not exists idx_tasks_tags on tasks using gin (tags);`,
			`create index if not exists idx_tasks_content_lower on tasks (lower(content) text_pattern_ops);`,
		)
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
