// Package services – AccountService
//
// This file implements registration, login and profile management. Emails
// are folded to lower case before storage and lookup; passwords are stored
// as bcrypt hashes only. Login failures never reveal whether the email
// exists.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/auth"
	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/observability"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Name     string  `json:"name"     validate:"required,min=2,max=50"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone"    validate:"omitempty,min=7,max=20"`
	Location string  `json:"location" validate:"required,min=2,max=100"`
}

// ProfilePatch lists the profile fields a user may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	Name     *string `json:"name"     validate:"omitnil,min=2,max=50"`
	Phone    *string `json:"phone"    validate:"omitempty,max=20"`
	Location *string `json:"location" validate:"omitnil,min=2,max=100"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AccountService manages user accounts.
type AccountService struct {
	DB         *gorm.DB
	Tokens     TokenIssuer
	BcryptCost int
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, tokens TokenIssuer, bcryptCost int) *AccountService {
	return &AccountService{DB: db, Tokens: tokens, BcryptCost: bcryptCost}
}

// Register validates in, creates the user and returns a fresh token.
//
// Errors:
//   - ValidationError on malformed input
//   - ErrEmailTaken when the email is already registered
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeKey(in.Email)
	in.Location = strings.TrimSpace(in.Location)
	if in.Phone != nil {
		p := strings.TrimSpace(*in.Phone)
		in.Phone = &p
		if p == "" {
			in.Phone = nil
		}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Location:     in.Location,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			observability.AuthFailures.WithLabelValues("email_taken").Inc()
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Login checks the credentials and returns a fresh token.
//
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	email = normalizeKey(email)
	fe := fieldErrors{}
	if email == "" {
		fe.add("email", "is required")
	}
	if password == "" {
		fe.add("password", "is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		observability.AuthFailures.WithLabelValues("bad_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		observability.AuthFailures.WithLabelValues("bad_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Profile returns the user record for userID.
func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Profile", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile applies the non-nil fields of patch and returns the updated
// profile. An empty phone string clears the phone number.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "UpdateProfile", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	fields := map[string]any{}
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		patch.Name = &v
		fields["name"] = v
	}
	if patch.Location != nil {
		v := strings.TrimSpace(*patch.Location)
		patch.Location = &v
		fields["location"] = v
	}
	if patch.Phone != nil {
		v := strings.TrimSpace(*patch.Phone)
		patch.Phone = &v
		if v == "" {
			fields["phone"] = nil
		} else {
			fields["phone"] = v
		}
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	u, err := repo.UpdateUser(ctx, s.DB, userID, fields)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
