package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/grindboard/internal/apperror"
	"github.com/sakif/grindboard/internal/dispatch"
	"github.com/sakif/grindboard/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// fakeStore implements both repository interfaces in memory. Hand-written
// fakes keep the tests readable: you can see exactly what each method does,
// and the err fields simulate a database that is down.

type fakeStore struct {
	mu       sync.Mutex
	users    []model.User
	settings model.Settings

	increments []increment

	listErr      error
	settingsErr  error
	incrementErr error
}

type increment struct {
	day    string
	totals model.SendTotals
	now    time.Time
}

func newFakeStore(users ...model.User) *fakeStore {
	return &fakeStore{users: users, settings: model.DefaultSettings()}
}

func (f *fakeStore) ListUsers(context.Context) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) UpsertUser(_ context.Context, u *model.User) error {
	for i, existing := range f.users {
		if existing.Email == u.Email {
			u.ID = existing.ID
			f.users[i] = *u
			return nil
		}
	}
	if u.ID == "" {
		u.ID = "user-" + u.Email
	}
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeStore) GetSettings(context.Context) (*model.Settings, error) {
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	s := f.settings
	return &s, nil
}

func (f *fakeStore) UpdateToggles(_ context.Context, p model.SettingsPatch) (*model.Settings, error) {
	if p.AutomationEnabled != nil {
		f.settings.AutomationEnabled = *p.AutomationEnabled
	}
	if p.EmailAutomationEnabled != nil {
		f.settings.EmailAutomationEnabled = *p.EmailAutomationEnabled
	}
	if p.WhatsappAutomationEnabled != nil {
		f.settings.WhatsappAutomationEnabled = *p.WhatsappAutomationEnabled
	}
	s := f.settings
	return &s, nil
}

func (f *fakeStore) SaveContent(_ context.Context, b *model.RoastBundle) error {
	f.settings.AIRoast = b
	return nil
}

func (f *fakeStore) IncrementCounters(_ context.Context, day string, t model.SendTotals, now time.Time) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, increment{day, t, now})
	f.settings = dispatch.ApplyResults(f.settings, t, now)
	return nil
}

func (f *fakeStore) Close() error { return nil }

// fakeSender records each Dispatch call and reports every user as emailed.
type fakeSender struct {
	calls []senderCall
	fail  map[string]string // email → error text
}

type senderCall struct {
	intensity model.Intensity
	users     []string
	tier      string
	email     bool
	whatsapp  bool
}

func (f *fakeSender) Dispatch(_ context.Context, i model.Intensity, users []model.User,
	tier *model.RoastTier, emailOn, whatsappOn bool) dispatch.Result {
	call := senderCall{intensity: i, tier: tier.FullMessage, email: emailOn, whatsapp: whatsappOn}
	res := dispatch.Result{Errors: []string{}}
	for _, u := range users {
		call.users = append(call.users, u.ID)
		res.Processed++
		if reason, ok := f.fail[u.Email]; ok {
			res.Errors = append(res.Errors, u.Email+": email: "+reason)
			continue
		}
		if emailOn {
			res.EmailsSent++
		}
	}
	f.calls = append(f.calls, call)
	return res
}

type fakeStats struct {
	mu    sync.Mutex
	calls map[string]string
	err   error
}

func (f *fakeStats) UpdateUserStats(_ context.Context, userID, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]string{}
	}
	f.calls[userID] = handle
	return f.err
}

// blockingStats never answers on its own; it returns only when ctx ends.
type blockingStats struct {
	mu      sync.Mutex
	results []error
}

func (b *blockingStats) UpdateUserStats(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, ctx.Err())
	return ctx.Err()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(s string) *string { return &s }

func member(id, grind, intensity string) model.User {
	u := model.User{
		ID:                  id,
		Name:                "User " + id,
		Email:               id + "@example.com",
		Role:                model.RoleUser,
		OnboardingCompleted: true,
		DailyGrindTime:      ptr(grind),
	}
	if intensity != "" {
		u.RoastIntensity = ptr(intensity)
	}
	return u
}

func bundle(date string) *model.RoastBundle {
	return &model.RoastBundle{
		Date:   date,
		Mild:   &model.RoastTier{FullMessage: "mild [NAME]"},
		Medium: &model.RoastTier{FullMessage: "medium [NAME]"},
		Savage: &model.RoastTier{FullMessage: "savage [NAME]"},
	}
}
