package internal

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// loginUser checks username and password and issues a token carrying the
// caller's role and home base.
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		sendMessage(w, http.StatusBadRequest, "Please provide username and password")
		return
	}

	store := s.Service.Store()
	user, err := store.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, ledger.ErrNotFound) {
		sendMessage(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		sendMessage(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !user.IsActive {
		sendMessage(w, http.StatusUnauthorized, "This account has been deactivated")
		return
	}

	if err := store.TouchLastLogin(r.Context(), user.ID); err != nil {
		s.Logger.WarnContext(r.Context(), "update last login", "user_id", user.ID, "err", err)
	}

	token, err := s.JWTManager.GenerateToken(user.ID, user.Role, user.LocationID)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	sendSuccess(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User:  user.Redacted(),
	})
}

func (s *Server) getUserProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	user, err := s.Service.Store().GetUser(r.Context(), p.UserID)
	if errors.Is(err, ledger.ErrNotFound) {
		sendMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	profile := map[string]any{"user": user.Redacted()}
	if user.LocationID != nil {
		if loc, err := s.Service.GetLocation(r.Context(), *user.LocationID); err == nil {
			profile["location"] = loc
		}
	}
	sendSuccess(w, http.StatusOK, profile)
}

func (s *Server) updateUserProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.Service.UpdateProfile(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, user)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Service.ChangePassword(r.Context(), principal(r), req); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.UserFilter{
		Role:       lp.str("role"),
		LocationID: lp.id("location_id"),
		Page:       lp.page,
	}
	if raw := lp.str("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			sendMessage(w, http.StatusBadRequest, "is_active must be true or false")
			return
		}
		f.Active = &active
	}
	if !lp.ok(w) {
		return
	}

	users, total, err := s.Service.ListUsers(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, users, total)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.Service.GetUser(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.Service.CreateUser(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.Service.UpdateUser(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, user)
}

func (s *Server) toggleUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.Service.ToggleUserStatus(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeleteUser(r.Context(), principal(r), id); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
