package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
)

// UserStore is the identity store: accounts, credential lookup and display
// fields for conversation participants.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.ErrUserExists
		}

		return apperr.Store("unable to create user", errors.Wrap(err, "userStore.Create"))
	}

	return nil
}

func (s *UserStore) User(ctx context.Context, id uint64) (model.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (model.User, error) {
	return s.first(ctx, "email = ?", email)
}

// Exists reports whether username or email is already taken.
func (s *UserStore) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, apperr.Store("unable to look up user", errors.Wrap(err, "userStore.Exists"))
	}

	return count > 0, nil
}

// Users resolves a batch of ids. Ids with no matching user are absent from
// the result.
func (s *UserStore) Users(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
	users := make(map[uint64]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var found []model.User
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error
	if err != nil {
		return nil, apperr.Store("unable to load users", errors.Wrap(err, "userStore.Users"))
	}

	for _, user := range found {
		users[user.ID] = user
	}

	return users, nil
}

func (s *UserStore) SetRole(ctx context.Context, id uint64, role string) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return apperr.Store("unable to update user", errors.Wrap(result.Error, "userStore.SetRole"))
	}

	if result.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}

	return nil
}

func (s *UserStore) first(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, apperr.ErrUserNotFound
		}

		return model.User{}, apperr.Store("unable to load user", errors.Wrap(err, "userStore.first"))
	}

	return user, nil
}
