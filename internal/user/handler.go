package user

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hollowtree/userhub/internal/auth"
	"github.com/hollowtree/userhub/internal/reqerror"
)

// Handler exposes the account endpoints over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// optional maps the JSON convention "absent or empty means not provided"
// onto the service layer's pointer arguments.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// List handles GET /api/user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		reqerror.Write(w, h.logger, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "users fetched successfully",
		"users":   users,
	})
}

// SignupRequest is the body for POST /api/user/create.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/user/create.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reqerror.Write(w, h.logger, reqerror.BadRequest("invalid request body"))
		return
	}
	if err := h.svc.Signup(r.Context(), optional(req.Username), req.Email, req.Password); err != nil {
		reqerror.Write(w, h.logger, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "user has signed up successfully"})
}

// LoginRequest is the body for POST /api/user/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login handles POST /api/user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reqerror.Write(w, h.logger, reqerror.BadRequest("invalid request body"))
		return
	}
	jwtToken, userID, err := h.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		reqerror.Write(w, h.logger, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "login successful",
		"jwtToken": jwtToken,
		"userID":   userID,
	})
}

// EditRequest is the body for PUT /api/user/edit.
type EditRequest struct {
	NewUsername string `json:"newUsername"`
	NewPassword string `json:"newPassword"`
	NewEmail    string `json:"newEmail"`
}

// Edit handles PUT /api/user/edit. The middleware already admitted the
// token; the raw value is read again here because the store procedure
// re-validates its digest as part of the update.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reqerror.Write(w, h.logger, reqerror.BadRequest("invalid request body"))
		return
	}
	if req.NewUsername == "" && req.NewPassword == "" && req.NewEmail == "" {
		reqerror.Write(w, h.logger, reqerror.BadRequest("at least one field of username, password or email must be provided for update"))
		return
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		reqerror.Write(w, h.logger, reqerror.Unauthorized("token is required in the authorization header"))
		return
	}
	rawToken := strings.TrimSpace(authHeader[len("Bearer "):])

	err := h.svc.Edit(r.Context(), rawToken,
		optional(req.NewUsername), optional(req.NewPassword), optional(req.NewEmail))
	if err != nil {
		reqerror.Write(w, h.logger, err)
		return
	}

	updated := map[string]any{
		"newUsername": orNA(req.NewUsername),
		"newEmail":    orNA(req.NewEmail),
	}
	// never echo the password back, masked or otherwise absent
	if req.NewPassword != "" {
		updated["newPassword"] = "******"
	} else {
		updated["newPassword"] = nil
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":      "user updated successfully",
		"updatedField": updated,
	})
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Profile handles GET /api/user/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profile(r.Context(), auth.Identifier(r.Context()))
	if err != nil {
		reqerror.Write(w, h.logger, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "user fetched successfully",
		"profile": profile,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
