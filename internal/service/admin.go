package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/grindboard/internal/apperror"
	"github.com/sakif/grindboard/internal/auth"
	"github.com/sakif/grindboard/internal/dispatch"
	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/repository"
)

// Validation limits for directory entries.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
	MaxPhoneLength = 20
)

// AdminService backs the admin API and the public roast endpoint.
type AdminService struct {
	users        repository.UserRepository
	settings     repository.SettingsRepository
	tokens       *auth.TokenService
	passwords    *auth.PasswordService
	passwordHash string
	now          Clock
	loc          *time.Location
	logger       *slog.Logger
}

// AdminConfig carries the optional login wiring. Without a TokenService or a
// password hash, Login always fails with ErrForbidden.
type AdminConfig struct {
	Tokens       *auth.TokenService
	Passwords    *auth.PasswordService
	PasswordHash string
	Location     *time.Location
}

// NewAdminService creates an AdminService.
func NewAdminService(
	users repository.UserRepository,
	settings repository.SettingsRepository,
	cfg AdminConfig,
	logger *slog.Logger,
) *AdminService {
	if cfg.Passwords == nil {
		cfg.Passwords = auth.NewPasswordService()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AdminService{
		users:        users,
		settings:     settings,
		tokens:       cfg.Tokens,
		passwords:    cfg.Passwords,
		passwordHash: cfg.PasswordHash,
		now:          time.Now,
		loc:          cfg.Location,
		logger:       logger,
	}
}

// Login checks the admin password and issues a token.
func (s *AdminService) Login(_ context.Context, password string) (string, error) {
	if s.tokens == nil || s.passwordHash == "" {
		return "", apperror.Forbidden("admin login is not configured")
	}
	if err := s.passwords.Verify(s.passwordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("admin login rejected")
			return "", apperror.Unauthorized("invalid password")
		}
		return "", fmt.Errorf("service/admin: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(auth.RoleAdmin, auth.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("service/admin: %w", err)
	}
	s.logger.Info("admin logged in")
	return token, nil
}

// Settings returns the shared settings row.
func (s *AdminService) Settings(ctx context.Context) (*model.Settings, error) {
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: %w", err)
	}
	return st, nil
}

// UpdateToggles applies a partial change to the automation switches.
func (s *AdminService) UpdateToggles(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	if patch.AutomationEnabled == nil && patch.EmailAutomationEnabled == nil && patch.WhatsappAutomationEnabled == nil {
		return nil, apperror.ValidationFailed("settings", "at least one toggle is required")
	}
	st, err := s.settings.UpdateToggles(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("service/admin: %w", err)
	}
	s.logger.Info("automation toggles updated",
		slog.Bool("automation", st.AutomationEnabled),
		slog.Bool("email", st.EmailAutomationEnabled),
		slog.Bool("whatsapp", st.WhatsappAutomationEnabled),
	)
	return st, nil
}

// SaveContent stores the day's content bundle. GeneratedAt is stamped here.
func (s *AdminService) SaveContent(ctx context.Context, bundle *model.RoastBundle) (*model.RoastBundle, error) {
	if bundle == nil {
		return nil, apperror.ValidationFailed("content", "body is required")
	}
	if _, err := time.Parse(DateLayout, bundle.Date); err != nil {
		return nil, apperror.ValidationFailed("date", "must be YYYY-MM-DD")
	}

	present := 0
	for _, i := range model.Intensities {
		t, _ := bundle.Tier(i)
		if t == nil {
			continue
		}
		if !t.Usable() {
			return nil, apperror.ValidationFailed(string(i)+".fullMessage", string(i)+" tier requires a fullMessage")
		}
		present++
	}
	if present == 0 {
		return nil, apperror.ValidationFailed("content", "at least one tier is required")
	}

	bundle.GeneratedAt = s.now().UTC()
	if err := s.settings.SaveContent(ctx, bundle); err != nil {
		return nil, fmt.Errorf("service/admin: %w", err)
	}
	s.logger.Info("content saved", slog.String("date", bundle.Date), slog.Int("tiers", present))
	return bundle, nil
}

// UpsertUser validates and stores a directory entry keyed by email.
func (s *AdminService) UpsertUser(ctx context.Context, u *model.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	switch {
	case u.Email == "" || !strings.Contains(u.Email, "@"):
		return apperror.ValidationFailed("email", "a valid email is required")
	case len(u.Email) > MaxEmailLength:
		return apperror.ValidationFailed("email", fmt.Sprintf("must be %d characters or fewer", MaxEmailLength))
	case len(u.Name) > MaxNameLength:
		return apperror.ValidationFailed("name", fmt.Sprintf("must be %d characters or fewer", MaxNameLength))
	}
	if u.Role != "" && u.Role != model.RoleUser && u.Role != model.RoleAdmin {
		return apperror.ValidationFailed("role", "must be user or admin")
	}
	if u.DailyGrindTime != nil && !dispatch.ValidTime(*u.DailyGrindTime) {
		return apperror.ValidationFailed("dailyGrindTime", "must be HH:MM")
	}
	if u.RoastIntensity != nil {
		i, ok := model.ParseIntensity(*u.RoastIntensity)
		if !ok {
			return apperror.ValidationFailed("roastIntensity", "must be mild, medium or savage")
		}
		v := string(i)
		u.RoastIntensity = &v
	}
	if u.PhoneNumber != nil {
		if p, ok := u.Phone(); !ok {
			u.PhoneNumber = nil
		} else if len(p) > MaxPhoneLength {
			return apperror.ValidationFailed("phoneNumber", fmt.Sprintf("must be %d characters or fewer", MaxPhoneLength))
		} else {
			u.PhoneNumber = &p
		}
	}

	if err := s.users.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("service/admin: upserting user %s: %w", u.Email, err)
	}
	s.logger.Info("user upserted", slog.String("userID", u.ID))
	return nil
}

// TodayRoast returns today's tier for an intensity. Unknown intensities fall
// back to medium, matching how the dispatcher groups users.
func (s *AdminService) TodayRoast(ctx context.Context, intensity string) (model.Intensity, *model.RoastTier, error) {
	i, ok := model.ParseIntensity(intensity)
	if !ok {
		i = model.IntensityMedium
	}
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("service/admin: %w", err)
	}
	date := s.now().In(s.loc).Format(DateLayout)
	content := TodayContent(st, date)
	tier, ok := content.Tier(i)
	if !ok {
		return "", nil, apperror.NotFound("roast", date+"/"+string(i))
	}
	return i, tier, nil
}
