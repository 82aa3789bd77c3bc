package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JovenGabriel/users-api/internal/config"
	"github.com/JovenGabriel/users-api/internal/domain"
	"github.com/JovenGabriel/users-api/internal/password"
	"github.com/JovenGabriel/users-api/internal/repository"
	"github.com/JovenGabriel/users-api/internal/token"
)

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneInput
}

// PhoneInput is one phone number within a registration request.
type PhoneInput struct {
	Number      string
	CityCode    string
	CountryCode string
}

// UserService implements registration, login, retrieval and request
// authentication on top of the user store and the token codec.
type UserService struct {
	users    repository.UserRepository
	attempts repository.AttemptStore
	node     *snowflake.Node
	codec    *token.Codec
	cfg      config.Config
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewUserService wires dependencies.
func NewUserService(users repository.UserRepository, attempts repository.AttemptStore, node *snowflake.Node, codec *token.Codec, cfg config.Config, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		attempts: attempts,
		node:     node,
		codec:    codec,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("github.com/JovenGabriel/users-api/internal/service"),
	}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.List")
	defer span.End()
	return s.users.List(ctx)
}

// GetByID returns one user or domain.ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.GetByID")
	defer span.End()
	return s.users.GetByID(ctx, id)
}

// Register creates a new user. The email must be unused; the password is
// stored only as a salted hash; an initial session token is issued and
// persisted on the record.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.Register")
	defer span.End()

	email := normalizeEmail(in.Email)

	// Friendly pre-check; the store's unique constraint remains the
	// authoritative guard against concurrent registrations.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("register lookup: %w", err)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("register hash password: %w", err)
	}

	sessionToken, err := s.codec.Issue(email)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("register issue token: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           s.node.Generate().Int64(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		LastLogin:    &now,
		Token:        sessionToken,
		IsActive:     true,
	}
	for _, phone := range in.Phones {
		user.Phones = append(user.Phones, domain.Phone{
			ID:          s.node.Generate().Int64(),
			Number:      phone.Number,
			CityCode:    phone.CityCode,
			CountryCode: phone.CountryCode,
		})
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("register create: %w", err)
	}

	s.audit("user.register.success", "user_id", created.ID, "email", created.Email)
	return created, nil
}

// Login verifies credentials and rotates the session token, invalidating any
// previously issued token for the user. Unknown email and wrong password
// fail identically with domain.ErrNotFound.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.Login")
	defer span.End()

	normalized := normalizeEmail(email)

	if err := s.checkLockout(ctx, normalized); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("login lookup: %w", err)
	}

	ok, err := password.Matches(plaintext, user.PasswordHash)
	if err != nil || !ok {
		s.audit("user.login.failure", "email", normalized)
		return domain.User{}, domain.ErrNotFound
	}

	sessionToken, err := s.codec.Issue(user.Email)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("login issue token: %w", err)
	}

	updated, err := s.users.UpdateSession(ctx, user.ID, sessionToken, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("login persist token: %w", err)
	}

	s.resetLockout(ctx, normalized)
	s.audit("user.login.success", "user_id", updated.ID, "email", updated.Email)
	return updated, nil
}

// Authenticate resolves a raw bearer token into an identity. Any failure is
// silent: a malformed, expired or forged token, an unknown subject, or a
// mismatch with the stored token all yield (zero, false).
func (s *UserService) Authenticate(ctx context.Context, raw string) (domain.Identity, bool) {
	ctx, span := s.startSpan(ctx, "UserService.Authenticate")
	defer span.End()

	if !s.codec.Validate(raw) {
		return domain.Identity{}, false
	}

	subject, err := s.codec.Subject(raw)
	if err != nil {
		return domain.Identity{}, false
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return domain.Identity{}, false
	}

	// Token validity alone is not enough: a later login overwrites the
	// stored token, which is what revokes every earlier one.
	if user.Token != raw {
		return domain.Identity{}, false
	}

	return domain.Identity{UserID: user.ID, Email: user.Email}, true
}

// checkLockout counts this attempt and rejects once the window budget is
// exhausted. A successful login resets the counter.
func (s *UserService) checkLockout(ctx context.Context, email string) error {
	if s.attempts == nil || s.cfg.LockoutAttempts <= 0 {
		return nil
	}
	count, err := s.attempts.Incr(ctx, email, s.cfg.LockoutWindow)
	if err != nil {
		// Degraded attempt store must not block logins.
		s.log().Warn("attempt store unavailable", zap.Error(err))
		return nil
	}
	if count > int64(s.cfg.LockoutAttempts) {
		s.audit("user.login.locked", "email", email, "attempts", count)
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *UserService) resetLockout(ctx context.Context, email string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, email); err != nil {
		s.log().Warn("reset attempts failed", zap.Error(err))
	}
}

func (s *UserService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *UserService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+1)
	fields = append(fields, zap.String("event", event))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *UserService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
