package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/rs/zerolog/log"
)

// DBClient is the slice of the store the user service needs.
type DBClient interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email string, role types.UserRole) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile db.ProfileUpdate) error
}

// UserService provides business logic for accounts and student profiles
type UserService struct {
	db             DBClient
	passwordConfig *config.PasswordConfig
	isAdminEmail   func(email string) bool
}

// NewUserService creates a new UserService. isAdminEmail decides which registrations become
// admins; nil registers everyone as a student.
func NewUserService(db DBClient, passwordConfig *config.PasswordConfig, isAdminEmail func(string) bool) *UserService {
	if isAdminEmail == nil {
		isAdminEmail = func(string) bool { return false }
	}
	return &UserService{
		db:             db,
		passwordConfig: passwordConfig,
		isAdminEmail:   isAdminEmail,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	skills := dbUser.Skills
	if skills == nil {
		skills = []string{}
	}
	return &types.User{
		ID:             dbUser.ID,
		Name:           dbUser.Name,
		Email:          dbUser.Email,
		Role:           dbUser.Role,
		Branch:         dbUser.Branch,
		Year:           dbUser.Year,
		CareerInterest: dbUser.CareerInterest,
		Skills:         skills,
		PasswordSet:    dbUser.PasswordSet,
		CreatedAt:      dbUser.CreatedAt,
		UpdatedAt:      dbUser.UpdatedAt,
	}
}

// Register creates a new account with password authentication
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	email := db.NormalizeEmail(req.Email)

	exists, err := s.db.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := types.RoleStudent
	if s.isAdminEmail(email) {
		role = types.RoleAdmin
	}

	// Two steps: create the account, then set its password.
	userID, err := s.db.CreateUser(ctx, strings.TrimSpace(req.Name), email, role)
	if errors.Is(err, db.ErrDuplicateEmail) {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.db.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if dbUser == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}

	log.Info().Str("user_id", userID.String()).Str("role", string(role)).Msg("user registered")
	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	dbUser, err := s.db.GetUserByEmail(ctx, db.NormalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password look the same to the caller.
	if dbUser == nil || !dbUser.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// GetUser returns the account by ID
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, dbUser.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.db.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfile replaces the student's profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*types.User, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	update := db.ProfileUpdate{
		Branch:         strings.TrimSpace(req.Branch),
		Year:           req.Year,
		CareerInterest: strings.TrimSpace(req.CareerInterest),
		Skills:         CleanSkills(req.Skills),
	}
	if err := s.db.UpdateProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// RecordAnalysisProfile stores the skills and career interest an analysis was run with.
// Branch and year are only overwritten when given.
func (s *UserService) RecordAnalysisProfile(ctx context.Context, userID uuid.UUID, careerInterest string, skills []string, branch string, year int) (*types.User, error) {
	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := &types.UpdateProfileRequest{
		Branch:         current.Branch,
		Year:           current.Year,
		CareerInterest: careerInterest,
		Skills:         skills,
	}
	if strings.TrimSpace(branch) != "" {
		req.Branch = branch
	}
	if year != 0 {
		req.Year = year
	}
	return s.UpdateProfile(ctx, userID, req)
}

// CleanSkills trims skill names and drops blanks and case-insensitive duplicates, keeping the
// first spelling and the caller's order.
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
