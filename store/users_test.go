package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
	"github.com/jrozner/roomboard/web/store"
	"github.com/jrozner/roomboard/web/store/storetest"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	users := store.NewUserStore(db)

	alice := model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, &alice))
	assert.NotZero(t, alice.ID)
	assert.Equal(t, model.RoleUser, alice.Role)

	t.Run("duplicate", func(t *testing.T) {
		dup := model.User{Username: "alice", Email: "other@example.com", PasswordHash: "hash"}
		assert.ErrorIs(t, users.Create(ctx, &dup), apperr.ErrUserExists)
	})

	t.Run("lookup", func(t *testing.T) {
		found, err := users.User(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)

		found, err = users.ByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)

		_, err = users.User(ctx, 404)
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)

		_, err = users.ByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := users.Exists(ctx, "alice", "new@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = users.Exists(ctx, "someone", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = users.Exists(ctx, "someone", "new@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("batch", func(t *testing.T) {
		bob := storetest.CreateUser(t, db, "bob")

		found, err := users.Users(ctx, []uint64{alice.ID, bob.ID, 404})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, "bob", found[bob.ID].Username)

		found, err = users.Users(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("role", func(t *testing.T) {
		require.NoError(t, users.SetRole(ctx, alice.ID, model.RoleAdmin))

		found, err := users.User(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, found.IsAdmin())

		assert.ErrorIs(t, users.SetRole(ctx, 404, model.RoleAdmin), apperr.ErrUserNotFound)
	})
}
