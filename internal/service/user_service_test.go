package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JovenGabriel/users-api/internal/config"
	"github.com/JovenGabriel/users-api/internal/domain"
	"github.com/JovenGabriel/users-api/internal/service"
	"github.com/JovenGabriel/users-api/internal/token"
)

var testSigningKey = []byte("service-test-signing-key-0123456789abcdef")

func newTestService(t *testing.T, cfg config.Config) (*service.UserService, *memoryUserRepo, *memoryAttemptStore) {
	t.Helper()
	users := newMemoryUserRepo()
	attempts := &memoryAttemptStore{counts: map[string]int64{}}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	codec := token.New(testSigningKey, cfg.TokenTTL)
	svc := service.NewUserService(users, attempts, node, codec, cfg, zap.NewNop())
	return svc, users, attempts
}

func registerInput() service.RegisterInput {
	return service.RegisterInput{
		Name:     "John Doe",
		Email:    "john.doe@example.com",
		Password: "Password123!",
		Phones:   []service.PhoneInput{{Number: "123456789", CityCode: "123", CountryCode: "1"}},
	}
}

func TestRegisterIssuesSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, config.Config{TokenTTL: time.Minute})

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	require.NotZero(t, user.ID)
	require.Equal(t, "john.doe@example.com", user.Email)
	require.NotEqual(t, "Password123!", user.PasswordHash)
	require.NotEmpty(t, user.Token)
	require.NotNil(t, user.LastLogin)
	require.True(t, user.IsActive)
	require.Len(t, user.Phones, 1)

	identity, ok := svc.Authenticate(ctx, user.Token)
	require.True(t, ok)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, user.Email, identity.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestService(t, config.Config{TokenTTL: time.Minute})

	first, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput())
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	// The existing record is untouched.
	stored, err := users.GetByEmail(ctx, first.Email)
	require.NoError(t, err)
	require.Equal(t, first.Token, stored.Token)
	require.Len(t, users.all(), 1)
}

func TestLoginRotatesToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, config.Config{TokenTTL: time.Minute})

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	firstToken := registered.Token

	loggedIn, err := svc.Login(ctx, "john.doe@example.com", "Password123!")
	require.NoError(t, err)
	require.NotEmpty(t, loggedIn.Token)
	require.NotEqual(t, firstToken, loggedIn.Token)

	// The old token still verifies cryptographically but no longer matches
	// the stored one, so it does not authenticate.
	_, ok := svc.Authenticate(ctx, firstToken)
	require.False(t, ok)

	identity, ok := svc.Authenticate(ctx, loggedIn.Token)
	require.True(t, ok)
	require.Equal(t, registered.ID, identity.UserID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, config.Config{TokenTTL: time.Minute})

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "john.doe@example.com", "WrongPassword1!")
	require.ErrorIs(t, wrongPassword, domain.ErrNotFound)

	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "Password123!")
	require.ErrorIs(t, unknownEmail, domain.ErrNotFound)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, config.Config{TokenTTL: -time.Second})

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, ok := svc.Authenticate(ctx, user.Token)
	require.False(t, ok)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, config.Config{TokenTTL: time.Minute})

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, ok := svc.Authenticate(ctx, raw)
		require.False(t, ok)
	}
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{TokenTTL: time.Minute, LockoutAttempts: 2, LockoutWindow: time.Minute}
	svc, _, _ := newTestService(t, cfg)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "john.doe@example.com", "WrongPassword1!")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Login(ctx, "john.doe@example.com", "WrongPassword1!")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The window budget is spent: even the correct password is locked out.
	_, err = svc.Login(ctx, "john.doe@example.com", "Password123!")
	require.ErrorIs(t, err, domain.ErrTooManyAttempts)
}

func TestLoginSuccessResetsLockout(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{TokenTTL: time.Minute, LockoutAttempts: 5, LockoutWindow: time.Minute}
	svc, _, attempts := newTestService(t, cfg)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "john.doe@example.com", "WrongPassword1!")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Login(ctx, "john.doe@example.com", "Password123!")
	require.NoError(t, err)

	require.Zero(t, attempts.counts["john.doe@example.com"])
}

type memoryUserRepo struct {
	byEmail map[string]domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: map[string]domain.User{}}
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memoryUserRepo) List(ctx context.Context) ([]domain.User, error) {
	return m.all(), nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if _, exists := m.byEmail[user.Email]; exists {
		return domain.User{}, domain.ErrEmailTaken
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.byEmail[user.Email] = user
	return user, nil
}

func (m *memoryUserRepo) UpdateSession(ctx context.Context, id int64, token string, lastLogin time.Time) (domain.User, error) {
	for email, user := range m.byEmail {
		if user.ID == id {
			user.Token = token
			user.LastLogin = &lastLogin
			user.UpdatedAt = time.Now().UTC()
			m.byEmail[email] = user
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memoryUserRepo) all() []domain.User {
	users := make([]domain.User, 0, len(m.byEmail))
	for _, user := range m.byEmail {
		users = append(users, user)
	}
	return users
}

type memoryAttemptStore struct {
	counts map[string]int64
}

func (m *memoryAttemptStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryAttemptStore) Reset(ctx context.Context, key string) error {
	delete(m.counts, key)
	return nil
}
