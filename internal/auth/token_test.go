package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(42, time.Now().UTC())
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, userID)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	token, err := issuer.Issue(42, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(42, time.Now().UTC())
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(42, time.Now().UTC())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = strings.Repeat("A", len(parts[1]))
	_, err = issuer.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

type memoryUsers struct {
	users  map[string]*User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*User)}
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryUsers) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	m.nextID++
	u := &User{ID: m.nextID, Email: email, PasswordHash: passwordHash, IsActive: true}
	m.users[email] = u
	return u, nil
}

func (m *memoryUsers) EmailByID(ctx context.Context, id int64) (string, error) {
	u, err := m.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewService(newMemoryUsers())
	ctx := context.Background()

	user, err := svc.Signup(ctx, "Owner@Example.com", "swordfish123")
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", user.Email)

	authed, err := svc.Authenticate(ctx, "owner@example.com", "swordfish123")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "owner@example.com", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Signup(ctx, "owner@example.com", "swordfish123")
	require.ErrorIs(t, err, shared.ErrDuplicateName)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc := NewService(newMemoryUsers())
	_, err := svc.Signup(context.Background(), "owner@example.com", "short")
	require.ErrorIs(t, err, shared.ErrValidation)
}
