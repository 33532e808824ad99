package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/repository"
	"wallet_ledger/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxIdentityLen = 255 // Column width of username and email

// UserDirectory registers and looks up users. Usernames and emails are
// normalized to lower case before every query and write.
type UserDirectory struct {
	users    repository.UserRepository
	log      logrus.FieldLogger
	validate *validator.Validate
	isSpam   func(email string) bool
	now      func() time.Time
}

func NewUserDirectory(users repository.UserRepository, log logrus.FieldLogger) *UserDirectory {
	return &UserDirectory{
		users:    users,
		log:      log.WithField("component", "user_directory"),
		validate: validator.New(),
		isSpam:   utils.IsSpamEmail,
		now:      time.Now,
	}
}

// Create registers a new user after input, spam and uniqueness checks.
func (d *UserDirectory) Create(ctx context.Context, email, username string) (*domain.User, error) {
	user := &domain.User{Email: email, Username: username}
	user.Normalize() // Lower-case and trim before any check

	if user.Email == "" {
		return nil, domain.Newf(domain.CodeValidation, "email is required")
	}
	if user.Username == "" {
		return nil, domain.Newf(domain.CodeValidation, "username is required")
	}
	if utf8.RuneCountInString(user.Username) > maxIdentityLen {
		return nil, domain.Newf(domain.CodeValidation, "username must be at most %d characters", maxIdentityLen)
	}
	if err := d.validate.Var(user.Email, "email,max=255"); err != nil {
		return nil, domain.Newf(domain.CodeValidation, "email must be a valid email address")
	}

	if d.isSpam(user.Email) {
		d.log.WithFields(logrus.Fields{
			"email":      user.Email,
			"spam_score": utils.SpamScore(user.Email),
		}).Warn("spam email detected in user creation")
		return nil, domain.ErrSpamRejected // Rejected before touching storage
	}

	existing, err := d.users.FindByUsername(ctx, user.Username)
	if err != nil {
		return nil, d.createFailed(user, err)
	}
	if existing != nil {
		return nil, domain.Newf(domain.CodeConflict, "username already exists")
	}

	existing, err = d.users.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, d.createFailed(user, err)
	}
	if existing != nil {
		return nil, domain.Newf(domain.CodeConflict, "email exists... provide another email")
	}

	now := d.now().UTC()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()

	if err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Newf(domain.CodeConflict, "username or email already exists") // Lost a concurrent insert
		}
		return nil, d.createFailed(user, err)
	}

	d.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user created")
	return user, nil
}

// FindByID fetches a user directly and fails with UserNotFound when absent.
func (d *UserDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil { // Malformed ids cannot match any row
		return nil, domain.Newf(domain.CodeUserNotFound, "user with id %s not found", id)
	}
	user, err := d.users.FindByID(ctx, uid)
	if err != nil {
		return nil, infraFailure(d.log, domain.CodeStorage, "failed to find user. please try again later",
			"find_user_by_id", logrus.Fields{"id": id}, err)
	}
	if user == nil {
		return nil, domain.Newf(domain.CodeUserNotFound, "user with id %s not found", id)
	}
	return user, nil
}

// FindByUsername returns nil without error when no user matches.
func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, nil // Nothing to look up
	}
	user, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, infraFailure(d.log, domain.CodeStorage, "failed to find user by username. please try again later",
			"find_user_by_username", logrus.Fields{"username": username}, err)
	}
	return user, nil
}

// FindByEmail returns nil without error when no user matches.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	user, err := d.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, infraFailure(d.log, domain.CodeStorage, "failed to find user by email. please try again later",
			"find_user_by_email", logrus.Fields{"email": email}, err)
	}
	return user, nil
}

// ListAll returns every user, newest first.
func (d *UserDirectory) ListAll(ctx context.Context) ([]domain.User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, infraFailure(d.log, domain.CodeStorage, "failed to fetch users. please try again later",
			"list_users", logrus.Fields{}, err)
	}
	return users, nil
}

func (d *UserDirectory) createFailed(user *domain.User, err error) error {
	return infraFailure(d.log, domain.CodeStorage, "failed to create user. please try again later",
		"create_user", logrus.Fields{"email": user.Email, "username": user.Username}, err)
}
