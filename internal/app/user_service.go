package app

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/igoramos77/uvents-api/internal/auth"
	"github.com/igoramos77/uvents-api/internal/clock"
	"github.com/igoramos77/uvents-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByMatricula(ctx context.Context, matricula string) (domain.User, error)
	Search(ctx context.Context, term string) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, matricula string) error
}

// AttendanceSource lists the events a user has confirmed presence at.
type AttendanceSource interface {
	EventsConfirmedBy(ctx context.Context, userID string) ([]domain.Event, error)
}

// TokenIssuer mints verified bearer credentials after a successful
// login.
type TokenIssuer interface {
	Issue(userID, matricula string) (string, error)
	TTL() time.Duration
}

type UserService struct {
	users      UserRepository
	attendance AttendanceSource
	tokens     TokenIssuer
	clock      clock.Clock
}

func NewUserService(users UserRepository, attendance AttendanceSource, tokens TokenIssuer, clk clock.Clock) *UserService {
	return &UserService{
		users:      users,
		attendance: attendance,
		tokens:     tokens,
		clock:      clk,
	}
}

type LoginResult struct {
	User      domain.User
	Token     string
	ExpiresIn time.Duration
}

// Login checks the credentials against the stored bcrypt hash and
// issues an access token. Every failure mode collapses into
// ErrInvalidCredentials so responses do not reveal which part was
// wrong.
func (s *UserService) Login(ctx context.Context, matricula, password string) (LoginResult, error) {
	matricula = strings.TrimSpace(matricula)
	if matricula == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByMatricula(ctx, matricula)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return LoginResult{}, err
	}
	user.LastLogin = &now

	token, err := s.tokens.Issue(user.ID, user.Matricula)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:      user,
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
	}, nil
}

type RegisterUserInput struct {
	Matricula string
	Password  string
	Name      string
	Email     string
	Role      string
	PhotoURL  string
}

func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (domain.User, error) {
	in.Matricula = strings.TrimSpace(in.Matricula)
	in.Name = collapseSpaces(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Matricula == "" || in.Name == "" || in.Password == "" {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if in.Role == "" {
		in.Role = "student"
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Matricula:    in.Matricula,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		PhotoURL:     in.PhotoURL,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type UpdateProfileInput struct {
	Name     string
	Email    string
	PhotoURL string
}

// UpdateProfile rewrites the caller's own display fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if name := collapseSpaces(in.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(strings.ToLower(in.Email)); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		user.Email = email
	}
	if in.PhotoURL != "" {
		user.PhotoURL = in.PhotoURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateAvatar swaps only the caller's photo.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, photoURL string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.PhotoURL = photoURL
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, term string) ([]domain.User, error) {
	return s.users.Search(ctx, strings.TrimSpace(term))
}

func (s *UserService) Delete(ctx context.Context, matricula string) error {
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return domain.ErrUserNotFound
	}
	return s.users.Delete(ctx, matricula)
}

// MyEvents lists the events the user confirmed presence at.
func (s *UserService) MyEvents(ctx context.Context, userID string) ([]domain.Event, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.attendance.EventsConfirmedBy(ctx, userID)
}

// collapseSpaces trims and squeezes repeated whitespace inside names.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
