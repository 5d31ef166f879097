package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// MockUserRepository implements ports.UserRepository for testing.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	password := "secret123"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	user := &domain.User{
		ID:           "u-1",
		Username:     "consultant",
		PasswordHash: string(hashed),
		Role:         domain.RoleConsultant,
	}

	// 1. Success (last login gets persisted)
	mockRepo.On("GetByUsername", ctx, "consultant").Return(user, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("domain.User")).Return(nil)

	token, err := svc.Login(ctx, domain.Credentials{Username: "consultant", Password: "secret123"})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// 2. Wrong Password
	mockRepo.On("GetByUsername", ctx, "consultant_fail").Return(user, nil)
	token, err = svc.Login(ctx, domain.Credentials{Username: "consultant_fail", Password: "wrong"})
	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, ErrInvalidCredentials, err)

	// 3. User Not Found
	mockRepo.On("GetByUsername", ctx, "ghost").Return(nil, errors.New("not found"))
	token, err = svc.Login(ctx, domain.Credentials{Username: "ghost", Password: "any"})
	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, ErrInvalidCredentials, err) // Should mask not found
}

func TestAuthService_LoginRateLimit(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByUsername", ctx, "victim").Return(nil, errors.New("not found"))

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(ctx, domain.Credentials{Username: "victim", Password: "guess"})
		assert.Equal(t, ErrInvalidCredentials, err)
	}

	_, err := svc.Login(ctx, domain.Credentials{Username: "victim", Password: "guess"})
	assert.Equal(t, ErrRateLimitExceeded, err)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	user := &domain.User{ID: "u-1", Username: "user", PasswordHash: string(hashed), Role: domain.RoleClient}

	mockRepo.On("GetByUsername", ctx, "user").Return(user, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("domain.User")).Return(nil)

	token, _ := svc.Login(ctx, domain.Credentials{Username: "user", Password: "pass"})

	// Expect GetByID to be called during Validation
	mockRepo.On("GetByID", ctx, "u-1").Return(user, nil)

	u, err := svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, "user", u.Username)

	// Invalid token
	u, err = svc.ValidateToken(ctx, "fake-token")
	assert.Error(t, err)
	assert.Nil(t, u)

	// Logout invalidates
	assert.NoError(t, svc.Logout(ctx, token))
	_, err = svc.ValidateToken(ctx, token)
	assert.Equal(t, ErrInvalidSession, err)
}

func TestAuthService_CreateUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	newUser := domain.User{Username: "newuser", Role: domain.RoleConsultant}

	// Verify hashing happens (we can't verify exact hash but can check length)
	mockRepo.On("Save", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == "newuser" && len(u.PasswordHash) > 0 && u.ID != ""
	})).Return(nil)

	err := svc.CreateUser(ctx, newUser, "password")
	assert.NoError(t, err)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_CreateUserRejectsBadInput(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewAuthService(mockRepo)
	ctx := context.Background()

	err := svc.CreateUser(ctx, domain.User{Username: "x", Role: domain.RoleClient}, "short")
	assert.Equal(t, domain.ErrInvalidPassword, err)

	err = svc.CreateUser(ctx, domain.User{Username: "x", Role: domain.Role("superuser")}, "longenough")
	assert.Equal(t, domain.ErrInvalidRole, err)

	mockRepo.AssertNotCalled(t, "Save")
}
