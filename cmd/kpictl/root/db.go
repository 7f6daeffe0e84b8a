package root

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dailykpi/internal/db"
)

const dateFormat = "2006-01-02"

func openDB(opts *rootOptions) (*gorm.DB, func(), error) {
	gdb, err := db.Open(opts.databasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", opts.databasePath, err)
	}
	cleanup := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return gdb, cleanup, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// parseDateFlag 空字符串返回 fallback
func parseDateFlag(name, value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, value)
	}
	return parsed, nil
}
