package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/repository"
	"github.com/rentora/rentora-backend/internal/service"
	"github.com/rentora/rentora-backend/pkg/auth"
	"github.com/rentora/rentora-backend/pkg/config"
	"github.com/rentora/rentora-backend/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "current_user"

type Handlers struct {
	authService    service.AuthService
	userService    service.UserService
	bookingService service.BookingService
	carService     service.CarService
	contentService service.ContentService
	statsService   service.StatsService
	tokens         *auth.TokenService
	userRepo       repository.UserRepository
	rateLimitRepo  repository.RateLimitRepository
	config         *config.Config
}

func New(
	authService service.AuthService,
	userService service.UserService,
	bookingService service.BookingService,
	carService service.CarService,
	contentService service.ContentService,
	statsService service.StatsService,
	tokens *auth.TokenService,
	userRepo repository.UserRepository,
	rateLimitRepo repository.RateLimitRepository,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService:    authService,
		userService:    userService,
		bookingService: bookingService,
		carService:     carService,
		contentService: contentService,
		statsService:   statsService,
		tokens:         tokens,
		userRepo:       userRepo,
		rateLimitRepo:  rateLimitRepo,
		config:         cfg,
	}
}

// RequireAuth authenticates the bearer token and resolves the live user
// record. The role embedded in the token is advisory only; authorization
// always reads the current database row, so a demotion takes effect on the
// next request rather than at token expiry.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
			return
		}

		claims, err := h.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token has expired", "TOKEN_EXPIRED")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), claims.Sub)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to resolve token user", "error", err, "user_id", claims.Sub)
			writeError(w, http.StatusInternalServerError, "Something went wrong", "INTERNAL")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User no longer exists", "UNAUTHORIZED")
			return
		}
		if !user.IsVerified {
			writeError(w, http.StatusForbidden, "Email not verified", "EMAIL_NOT_VERIFIED")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, strconv.FormatInt(user.ID, 10))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on the live user's current role. Must be mounted
// inside RequireAuth.
func (h *Handlers) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit caps requests per client IP using the shared counter table.
// Checks fail open so a storage hiccup does not lock out logins.
func (h *Handlers) RateLimit(name string, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + getClientIP(r)
			allowed, err := h.rateLimitRepo.CheckRateLimit(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(userContextKey).(*domain.User); ok {
		return user
	}
	return nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess wraps the payload in the response envelope. Payload keys are
// merged at the top level next to success/message.
func writeSuccess(w http.ResponseWriter, statusCode int, message string, payload map[string]interface{}) {
	response := map[string]interface{}{"success": true}
	if message != "" {
		response["message"] = message
	}
	for k, v := range payload {
		response[k] = v
	}
	writeJSON(w, statusCode, response)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"message": message,
		"code":    code,
	})
}

// writeDomainError maps a service error onto its fixed HTTP status and
// machine-readable code. Unknown errors are logged and surfaced as a generic
// 500 with no internal detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, status, "Something went wrong", code)
		return
	}
	writeError(w, status, err.Error(), code)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, "INVALID_DATE"
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS"
	case errors.Is(err, domain.ErrLastAdmin):
		return http.StatusBadRequest, "LAST_ADMIN"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, "ALREADY_VERIFIED"
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusBadRequest, "CODE_EXPIRED"
	case errors.Is(err, domain.ErrCodeMismatch):
		return http.StatusBadRequest, "CODE_MISMATCH"
	case errors.Is(err, domain.ErrInvalidLogin):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrUnverified):
		return http.StatusForbidden, "EMAIL_NOT_VERIFIED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, domain.ErrKeyExists):
		return http.StatusConflict, "KEY_EXISTS"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func parseIDParam(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}
