// Package auth is the identity boundary: registration, credential checks and
// session tokens.
package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	User(ctx context.Context, id uint64) (model.User, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	SetRole(ctx context.Context, id uint64, role string) error
}

type Accounts struct {
	users  UserStore
	tokens *Tokens
	log    zerolog.Logger
}

func NewAccounts(users UserStore, tokens *Tokens, log zerolog.Logger) *Accounts {
	return &Accounts{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

type Registration struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     string
}

// Register creates an account and returns a session token for it.
func (a *Accounts) Register(ctx context.Context, reg Registration) (model.User, string, error) {
	user, err := a.create(ctx, reg)
	if err != nil {
		return model.User{}, "", err
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return model.User{}, "", apperr.Wrap(apperr.CodeInternal, "unable to issue token", err)
	}

	return user, token, nil
}

func (a *Accounts) create(ctx context.Context, reg Registration) (model.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	switch {
	case reg.Username == "":
		return model.User{}, apperr.Validation("username", "username is required")
	case reg.Email == "":
		return model.User{}, apperr.Validation("email", "email is required")
	case reg.Password == "":
		return model.User{}, apperr.Validation("password", "password is required")
	}

	exists, err := a.users.Exists(ctx, reg.Username, reg.Email)
	if err != nil {
		return model.User{}, err
	}

	if exists {
		return model.User{}, apperr.ErrUserExists
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return model.User{}, apperr.Wrap(apperr.CodeInternal, "unable to hash password", err)
	}

	user := model.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         reg.Role,
	}
	if reg.Phone != "" {
		phone := reg.Phone
		user.Phone = &phone
	}

	err = a.users.Create(ctx, &user)
	if err != nil {
		return model.User{}, err
	}

	a.log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Str("role", user.Role).Msg("user registered")

	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are reported
// the same way.
func (a *Accounts) Login(ctx context.Context, email, password string) (model.User, string, error) {
	if email == "" || password == "" {
		return model.User{}, "", apperr.Validation("email", "email and password are required")
	}

	user, err := a.users.ByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return model.User{}, "", apperr.ErrInvalidCredential
		}

		return model.User{}, "", err
	}

	if !CheckPassword(user.PasswordHash, password) {
		a.log.Info().Uint64("user_id", user.ID).Msg("login rejected")
		return model.User{}, "", apperr.ErrInvalidCredential
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return model.User{}, "", apperr.Wrap(apperr.CodeInternal, "unable to issue token", err)
	}

	return user, token, nil
}

// CreateAdmin registers an administrator, or promotes the existing account
// with that email.
func (a *Accounts) CreateAdmin(ctx context.Context, reg Registration) (model.User, error) {
	existing, err := a.users.ByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		err = a.users.SetRole(ctx, existing.ID, model.RoleAdmin)
		if err != nil {
			return model.User{}, err
		}
		existing.Role = model.RoleAdmin
		a.log.Info().Uint64("user_id", existing.ID).Msg("user promoted to admin")
		return existing, nil
	case !apperr.Is(err, apperr.CodeNotFound):
		return model.User{}, err
	}

	reg.Role = model.RoleAdmin
	return a.create(ctx, reg)
}

func (a *Accounts) User(ctx context.Context, id uint64) (model.User, error) {
	return a.users.User(ctx, id)
}

func (a *Accounts) Verify(raw string) (*Claims, error) {
	return a.tokens.Verify(raw)
}
