package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/rentora-backend/internal/domain"
)

// Me returns the authenticated user's profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"user": user.ToUserInfo(),
	})
}

// UpdateProfile changes the caller's display name.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{
		"user": user.ToUserInfo(),
	})
}

// ChangePassword rotates the caller's password after verifying the current one.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), currentUser(r).ID, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// ListUsers returns all users, staff only.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.userService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"users": infos,
	})
}

// UpdateUserRole changes a user's role, admin only. Demotions that would
// leave the system without an admin are refused.
func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id", "INVALID_INPUT")
		return
	}

	var req domain.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), currentUser(r), targetID, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User role updated to "+user.Role, map[string]interface{}{
		"user": user.ToUserInfo(),
	})
}

// DeleteUser removes a user and all of their bookings, admin only.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id", "INVALID_INPUT")
		return
	}

	if err := h.userService.DeleteUser(r.Context(), currentUser(r), targetID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User deleted successfully", nil)
}
