package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/grindboard/internal/model"
)

// AdminService is what the admin and roast handlers need from the service
// layer. *service.AdminService implements it.
type AdminService interface {
	Login(ctx context.Context, password string) (string, error)
	Settings(ctx context.Context) (*model.Settings, error)
	UpdateToggles(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error)
	SaveContent(ctx context.Context, bundle *model.RoastBundle) (*model.RoastBundle, error)
	UpsertUser(ctx context.Context, u *model.User) error
	TodayRoast(ctx context.Context, intensity string) (model.Intensity, *model.RoastTier, error)
}

// AdminHandler serves /api/admin/*. Everything except login sits behind
// auth.RequireAdmin.
type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLogin exchanges the admin password for a bearer token.
//
// HTTP: POST /api/admin/login  {"password": "..."}
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// HandleGetSettings returns toggles, counters and the stored content bundle.
//
// HTTP: GET /api/admin/settings
func (h *AdminHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandlePatchSettings flips any of the three automation toggles.
//
// HTTP: PATCH /api/admin/settings  {"emailAutomationEnabled": false}
func (h *AdminHandler) HandlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	s, err := h.svc.UpdateToggles(r.Context(), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandlePutContent stores the day's content bundle.
//
// HTTP: PUT /api/admin/content  {"date": "2024-01-02", "mild": {...}, ...}
func (h *AdminHandler) HandlePutContent(w http.ResponseWriter, r *http.Request) {
	var bundle model.RoastBundle
	if err := decodeJSON(w, r, &bundle); err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.svc.SaveContent(r.Context(), &bundle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandlePutUser creates or updates a directory entry keyed by email.
//
// HTTP: PUT /api/admin/users
func (h *AdminHandler) HandlePutUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpsertUser(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type roastResponse struct {
	Intensity model.Intensity `json:"intensity"`
	Message   string          `json:"message"`
}

// HandleTodayRoast returns the dashboard line for a tier.
//
// HTTP: GET /api/roast/today?intensity=savage
//
// The short dashboard variant is preferred; tiers without one fall back to
// the full message.
func (h *AdminHandler) HandleTodayRoast(w http.ResponseWriter, r *http.Request) {
	i, tier, err := h.svc.TodayRoast(r.Context(), r.URL.Query().Get("intensity"))
	if err != nil {
		writeError(w, err)
		return
	}
	msg := tier.DashboardMessage
	if msg == "" {
		msg = tier.FullMessage
	}
	writeJSON(w, http.StatusOK, roastResponse{Intensity: i, Message: msg})
}

// HandleHealth reports liveness.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
