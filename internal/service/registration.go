package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// UserCreator is the write side of the credential store.
type UserCreator interface {
	Create(ctx context.Context, u *model.User) error
}

// RegisterInput is the registration form.  Field names follow what the
// catalog's existing clients post.
type RegisterInput struct {
	Username     string `json:"username" form:"username"`
	EmailAddress string `json:"EmailAddress" form:"EmailAddress"`
	FirstName    string `json:"FirstName" form:"FirstName"`
	LastName     string `json:"LastName" form:"LastName"`
	Password     string `json:"password" form:"password"`
}

// RegistrationService creates identities.
type RegistrationService struct {
	Users      UserCreator
	BcryptCost int
	Log        logrus.FieldLogger
}

// NewRegistrationService hashes passwords at cost before handing identities
// to users.
func NewRegistrationService(users UserCreator, cost int, log logrus.FieldLogger) *RegistrationService {
	return &RegistrationService{Users: users, BcryptCost: cost, Log: log}
}

// Register stores a new identity.  It returns a *repository.ValidationError
// when a required field is missing or the password exceeds bcrypt's 72 byte
// limit, and repository.ErrUsernameExists when the
// username is taken; in both cases nothing is persisted.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	u := &model.User{
		Username:     strings.TrimSpace(in.Username),
		EmailAddress: strings.TrimSpace(in.EmailAddress),
		DisplayName:  strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName)),
	}

	// An empty password reaches the store with an empty hash and is
	// reported alongside the other missing fields.
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password, s.BcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				s.Log.WithField("username", u.Username).Debug("register: password too long")
				return nil, &repository.ValidationError{Fields: []string{"password"}}
			}
			return nil, err
		}
		u.PasswordHash = hash
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			s.Log.WithField("username", u.Username).Info("register: username already exists")
		case errors.Is(err, repository.ErrValidation):
			s.Log.WithError(err).Debug("register: rejected")
		default:
			s.Log.WithError(err).Error("register: store failure")
		}
		return nil, err
	}
	s.Log.WithField("user_id", u.ID).Info("register: user created")
	return u, nil
}
