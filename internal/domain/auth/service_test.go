package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[id.ID]*User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[id.ID]*User)}
}

func (m *memoryUsers) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memoryUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func newTestService() (*Service, *memoryUsers) {
	repo := newMemoryUsers()
	return NewService(repo, repo, NewPasswordHasher(bcrypt.MinCost)), repo
}

func TestCreateUserAndResolve(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: " Siti ", Password: "gudang-2024", FullName: "Siti Rahma", Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "siti", user.Username)
	assert.NotEqual(t, "gudang-2024", user.PasswordHash)

	actor, err := svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), actor.UserID)
	assert.Equal(t, "staff", actor.Role)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "SITI", Password: "another-pass", Role: "admin"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "budi", Password: "long-enough", Role: "owner"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "budi", Password: "short", Role: "staff"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "  ", Password: "long-enough", Role: "staff"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestResolve_UnknownOrInactive(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Resolve(ctx, id.New())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	u := NewUser("ghost", "", "staff")
	u.IsActive = false
	require.NoError(t, repo.Create(ctx, u))

	_, err = svc.Resolve(ctx, u.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "admin", Password: "correct-horse", Role: "admin"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "Admin", "correct-horse")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = svc.Authenticate(ctx, "admin", "wrong-horse")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = svc.Authenticate(ctx, "nobody", "correct-horse")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)

	_, err := h.Verify("not-a-bcrypt-hash", "whatever1")
	assert.Error(t, err)
}

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateUserRequest
		field string
	}{
		{"missing username", CreateUserRequest{Password: "long-enough", Role: "staff"}, "username"},
		{"password over bcrypt limit", CreateUserRequest{Username: "budi", Password: strings.Repeat("x", 73), Role: "staff"}, "password"},
		{"unknown role", CreateUserRequest{Username: "budi", Password: "long-enough", Role: "owner"}, "role"},
		{"long full name", CreateUserRequest{Username: "budi", Password: "long-enough", Role: "staff", FullName: strings.Repeat("n", 101)}, "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := apperror.AsAppError(tt.req.Validate())
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}

	assert.NoError(t, CreateUserRequest{Username: "budi", Password: "long-enough", Role: "admin"}.Validate())
}
