package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryDB is an in-memory DBClient.
type memoryDB struct {
	users     map[uuid.UUID]*db.User
	createErr error
	lookupErr error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{users: make(map[uuid.UUID]*db.User)}
}

func (m *memoryDB) CheckEmailExists(_ context.Context, email string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryDB) CreateUser(_ context.Context, name, email string, role types.UserRole) (uuid.UUID, error) {
	if m.createErr != nil {
		return uuid.Nil, m.createErr
	}
	id := uuid.New()
	now := time.Now()
	m.users[id] = &db.User{ID: id, Name: name, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (m *memoryDB) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryDB) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	return nil
}

func (m *memoryDB) UpdateProfile(_ context.Context, id uuid.UUID, p db.ProfileUpdate) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.Branch, u.Year, u.CareerInterest, u.Skills = p.Branch, p.Year, p.CareerInterest, p.Skills
	return nil
}

func newTestUserService(store DBClient) *UserService {
	return NewUserService(store, &config.PasswordConfig{BcryptCost: bcrypt.MinCost}, func(email string) bool {
		return email == "admin@campus.edu"
	})
}

func TestConvertDBUserToTypesUser(t *testing.T) {
	now := time.Now()
	dbUser := &db.User{
		ID:             uuid.New(),
		Name:           "Priya",
		Email:          "priya@campus.edu",
		Role:           types.RoleStudent,
		Branch:         "Civil Engineering",
		Year:           4,
		CareerInterest: "Cloud Engineer",
		PasswordHash:   "hashed-password",
		PasswordSet:    true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	got := convertDBUserToTypesUser(dbUser)
	require.NotNil(t, got)
	assert.Equal(t, dbUser.ID, got.ID)
	assert.Equal(t, dbUser.Role, got.Role)
	assert.Equal(t, dbUser.Branch, got.Branch)
	assert.Equal(t, dbUser.Year, got.Year)
	assert.Equal(t, dbUser.CareerInterest, got.CareerInterest)
	assert.Equal(t, []string{}, got.Skills)
	assert.True(t, got.PasswordSet)

	assert.Nil(t, convertDBUserToTypesUser(nil))
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	store := newMemoryDB()
	svc := newTestUserService(store)

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "  Admin  ", Email: "Admin@Campus.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)
	assert.Equal(t, "admin@campus.edu", user.Email)
	assert.Equal(t, types.RoleAdmin, user.Role)
	assert.NotEqual(t, "secret1", store.users[user.ID].PasswordHash)

	_, err = svc.Register(ctx, &types.CreateUserRequest{Name: "Dup", Email: "ADMIN@campus.edu", Password: "secret1"})
	var exists *ErrEmailAlreadyExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "admin@campus.edu", exists.Email)
}

func TestUserService_Register_DuplicateRace(t *testing.T) {
	store := newMemoryDB()
	store.createErr = db.ErrDuplicateEmail
	svc := newTestUserService(store)

	_, err := svc.Register(context.Background(), &types.CreateUserRequest{Name: "A", Email: "a@campus.edu", Password: "secret1"})
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	store := newMemoryDB()
	svc := newTestUserService(store)

	registered, err := svc.Register(ctx, &types.CreateUserRequest{Name: "S", Email: "s@campus.edu", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, &types.LoginRequest{Email: " S@Campus.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	noPassword, err := store.CreateUser(ctx, "Legacy", "legacy@campus.edu", types.RoleStudent)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, noPassword)

	for _, req := range []types.LoginRequest{
		{Email: "s@campus.edu", Password: "wrong"},
		{Email: "missing@campus.edu", Password: "secret1"},
		{Email: "legacy@campus.edu", Password: ""},
	} {
		_, err := svc.Login(ctx, &req)
		var invalid *ErrInvalidCredentials
		assert.ErrorAs(t, err, &invalid, req.Email)
	}

	store.lookupErr = errors.New("db down")
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "s@campus.edu", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, 500, HTTPStatus(err))
}

func TestUserService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newMemoryDB())

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "S", Email: "s@campus.edu", Password: "secret1"})
	require.NoError(t, err)

	var mismatch *ErrPasswordMismatch
	assert.ErrorAs(t, svc.UpdatePassword(ctx, user.ID, "nope", "secret2"), &mismatch)

	var notFound *ErrUserNotFound
	assert.ErrorAs(t, svc.UpdatePassword(ctx, uuid.New(), "secret1", "secret2"), &notFound)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "secret1", "secret2"))
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "s@campus.edu", Password: "secret2"})
	assert.NoError(t, err)
}

func TestUserService_RecordAnalysisProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newMemoryDB())

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "S", Email: "s@campus.edu", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, user.ID, &types.UpdateProfileRequest{Branch: "Computer Science", Year: 2})
	require.NoError(t, err)

	got, err := svc.RecordAnalysisProfile(ctx, user.ID, "Data Analyst", []string{"SQL", " Excel "}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", got.Branch)
	assert.Equal(t, 2, got.Year)
	assert.Equal(t, "Data Analyst", got.CareerInterest)
	assert.Equal(t, []string{"SQL", "Excel"}, got.Skills)

	got, err = svc.RecordAnalysisProfile(ctx, user.ID, "Data Analyst", []string{"SQL"}, "Other", 3)
	require.NoError(t, err)
	assert.Equal(t, "Other", got.Branch)
	assert.Equal(t, 3, got.Year)

	_, err = svc.RecordAnalysisProfile(ctx, uuid.New(), "Data Analyst", nil, "", 0)
	var notFound *ErrUserNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestCleanSkills(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"blanks", []string{"", "  "}, []string{}},
		{"trim and dedupe", []string{" Go", "go ", "SQL", "Go"}, []string{"Go", "SQL"}},
		{"keeps order", []string{"Rust", "C", "Python"}, []string{"Rust", "C", "Python"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSkills(tt.in))
		})
	}
}
