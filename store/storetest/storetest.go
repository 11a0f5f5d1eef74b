// Package storetest provides a migrated in-memory SQLite database for tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jrozner/roomboard/web/model"
	"github.com/jrozner/roomboard/web/store"
)

// Clock hands out strictly increasing timestamps so created_at ordering is
// deterministic.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start.UTC(), step: step}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(c.step)
	return c.now
}

// Open returns a fresh schema. A single pooled connection keeps every query
// on the same in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	clock := NewClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), time.Second)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        clock.Now,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, store.Migrate(db))

	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) model.User {
	t.Helper()

	user := model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleUser,
	}
	require.NoError(t, store.NewUserStore(db).Create(context.Background(), &user))

	return user
}
