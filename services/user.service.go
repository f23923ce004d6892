package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDirectory resolves user accounts owned by the identity provider; this
// core only reads principals and writes derived fields
type UserDirectory interface {
	ByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureEmail(ctx context.Context, userID uuid.UUID, email string) error
}

// User contains all the user related services
type User struct {
	Conn *connect.Connector
}

// ByEmail is a function that is used to get the user with the given email address
func (u *User) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.Conn.DB.WithContext(ctx).Where(&models.User{
		Email: strings.ToLower(email),
	}).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}

		return nil, err
	}

	return &user, nil
}

// EnsureEmail merges the lower cased email of the identity provider onto the
// user record, creating the record when the user logs in here for the first time
func (u *User) EnsureEmail(ctx context.Context, userID uuid.UUID, email string) error {
	email = strings.ToLower(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := u.Conn.DB.WithContext(ctx).Where(&models.User{
		ID: &userID,
	}).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			err = u.Conn.DB.WithContext(ctx).Create(&models.User{
				ID:    &userID,
				Email: email,
			}).Error
			return checkEmailConflict(err)
		}

		return err
	}

	if user.Email == email {
		return nil
	}

	err = u.Conn.DB.WithContext(ctx).Model(&models.User{}).Where(&models.User{
		ID: &userID,
	}).Update("email", email).Error
	return checkEmailConflict(err)
}

// checkEmailConflict maps a unique index violation on the email column to a
// caller facing error
func checkEmailConflict(err error) error {
	if err == nil {
		return nil
	}

	if ok := (errors.CheckDBError{}.DuplicateKey(err)); ok {
		return fmt.Errorf("%w: email is bound to another account", errors.ErrInvalidRequest)
	}

	return err
}
