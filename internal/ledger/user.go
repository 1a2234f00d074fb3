package ledger

import (
	"context"
	"errors"
	"strings"

	"asset-ledger-api/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const duplicateUser = "User with this email or username already exists"

// ListUsers returns accounts without password hashes. Administrators only.
func (s *Service) ListUsers(ctx context.Context, p Principal, f UserFilter) ([]models.User, int, error) {
	if !p.Elevated() {
		return nil, 0, forbidden("Only administrators can manage users")
	}
	if f.Role != "" && !models.IsValidRole(f.Role) {
		return nil, 0, validationf("Invalid role: %s", f.Role)
	}
	users, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing users", err)
	}
	for i := range users {
		users[i] = users[i].Redacted()
	}
	return users, total, nil
}

// GetUser returns one account. Users may read their own.
func (s *Service) GetUser(ctx context.Context, p Principal, id int64) (*models.User, error) {
	if !p.Elevated() && p.UserID != id {
		return nil, forbidden("Only administrators can manage users")
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	r := u.Redacted()
	return &r, nil
}

// CreateUser opens an account. Every role but admin needs a home base, and
// an admin never has one.
func (s *Service) CreateUser(ctx context.Context, p Principal, req models.CreateUserRequest) (*models.User, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can manage users")
	}
	u := &models.User{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		Role:       req.Role,
		LocationID: req.LocationID,
		IsActive:   true,
	}
	if u.Username == "" || u.Email == "" || req.Password == "" || u.Role == "" {
		return nil, validationf("Missing required fields: username, email, password and role are required")
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := s.checkRoleHome(ctx, u); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf(duplicateUser)
		}
		return nil, unexpected("creating user", err)
	}
	s.log.Info("user created", "user_id", p.UserID, "new_user_id", u.ID, "role", u.Role)
	r := u.Redacted()
	return &r, nil
}

// UpdateUser edits an account. Passwords change only through ChangePassword.
func (s *Service) UpdateUser(ctx context.Context, p Principal, id int64, req models.UpdateUserRequest) (*models.User, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can manage users")
	}
	if req.Password != nil {
		return nil, validationf("Password updates are not allowed through this endpoint")
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if u.Username == "" || u.Email == "" {
		return nil, validationf("username and email cannot be empty")
	}
	if req.Role != nil && *req.Role != u.Role {
		if id == p.UserID {
			return nil, validationf("You cannot change your own role")
		}
		u.Role = *req.Role
	}
	if req.LocationID != nil {
		u.LocationID = req.LocationID
	}
	if u.Role == models.RoleAdmin {
		u.LocationID = nil
	}
	if req.IsActive != nil && !*req.IsActive && u.IsActive && u.Role == models.RoleAdmin {
		return nil, validationf("Admin users cannot be deactivated")
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := s.checkRoleHome(ctx, u); err != nil {
		return nil, err
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf(duplicateUser)
		}
		return nil, lookup(err, "updating user", "No user found with that ID")
	}
	r := u.Redacted()
	return &r, nil
}

// ToggleUserStatus flips is_active. An active admin cannot be switched off.
func (s *Service) ToggleUserStatus(ctx context.Context, p Principal, id int64) (*models.User, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can manage users")
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin && u.IsActive {
		return nil, validationf("Admin users cannot be deactivated")
	}
	u.IsActive = !u.IsActive
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, lookup(err, "toggling user status", "No user found with that ID")
	}
	s.log.Info("user status changed", "user_id", p.UserID, "target_user_id", id, "active", u.IsActive)
	r := u.Redacted()
	return &r, nil
}

// DeleteUser removes an account that has never signed a ledger record.
// Admins cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, p Principal, id int64) error {
	if !p.Elevated() {
		return forbidden("Only administrators can manage users")
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return validationf("Admin users cannot be deleted")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return conflictf("User has ledger history; deactivate the account instead")
		}
		return lookup(err, "deleting user", "No user found with that ID")
	}
	s.log.Info("user deleted", "user_id", p.UserID, "deleted_user_id", id)
	return nil
}

// UpdateProfile lets any user change their own email.
func (s *Service) UpdateProfile(ctx context.Context, p Principal, req models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.user(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if req.Email == nil {
		return nil, validationf("No fields to update")
	}
	u.Email = strings.TrimSpace(*req.Email)
	if u.Email == "" {
		return nil, validationf("email cannot be empty")
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf(duplicateUser)
		}
		return nil, lookup(err, "updating profile", "User not found")
	}
	r := u.Redacted()
	return &r, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, p Principal, req models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return validationf("Current password and new password are required")
	}
	u, err := s.user(ctx, p.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return validationf("Current password is incorrect")
	}
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return lookup(err, "changing password", "User not found")
	}
	s.log.Info("password changed", "user_id", p.UserID)
	return nil
}

func (s *Service) user(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading user", "No user found with that ID")
	}
	return u, nil
}

// checkRoleHome enforces the role/base pairing the users table also checks.
func (s *Service) checkRoleHome(ctx context.Context, u *models.User) error {
	if !models.IsValidRole(u.Role) {
		return validationf("Invalid role. Must be one of: %s", strings.Join(models.ValidRoles, ", "))
	}
	if !models.RequiresLocation(u.Role) {
		u.LocationID = nil
		return nil
	}
	if u.LocationID == nil {
		return validationf("A base is required for the %s role", u.Role)
	}
	if _, err := s.location(ctx, *u.LocationID, "Base not found"); err != nil {
		if KindOf(err) == KindNotFound {
			return validationf("Base not found")
		}
		return err
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", validationf("Password is too long")
		}
		return "", unexpected("hashing password", err)
	}
	return string(hash), nil
}
