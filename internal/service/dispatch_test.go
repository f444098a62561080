package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grindboard/internal/model"
)

// 09:20 UTC on 2024-01-02 falls in the 09:00-09:30 slot.
var runTime = time.Date(2024, 1, 2, 9, 20, 0, 0, time.UTC)

func newTestDispatchService(store *fakeStore, sender *fakeSender, stats StatsUpdater) *DispatchService {
	return NewDispatchService(store, store, sender, stats, time.UTC, quietLogger()).
		WithClock(func() time.Time { return runTime })
}

func TestRun_Disabled(t *testing.T) {
	store := newFakeStore(member("a", "09:15", ""))
	store.settings.AutomationEnabled = false
	store.settings.AIRoast = bundle("2024-01-02")
	sender := &fakeSender{}

	report, err := newTestDispatchService(store, sender, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunDisabled, report.Status)
	assert.Empty(t, sender.calls)
	assert.Empty(t, store.increments)
}

func TestRun_NoContent(t *testing.T) {
	tests := []struct {
		name    string
		content *model.RoastBundle
	}{
		{"absent", nil},
		{"stale date", bundle("2024-01-01")},
		{"no usable tier", &model.RoastBundle{Date: "2024-01-02", Mild: &model.RoastTier{FullMessage: "  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(member("a", "09:15", ""))
			store.settings.AIRoast = tt.content
			sender := &fakeSender{}

			report, err := newTestDispatchService(store, sender, nil).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, RunNoContent, report.Status)
			assert.Equal(t, "2024-01-02", report.Date)
			assert.Empty(t, sender.calls)
			assert.Empty(t, store.increments)
		})
	}
}

func TestRun_EmptySlot(t *testing.T) {
	store := newFakeStore(member("a", "09:35", ""), member("b", "10:00", ""))
	store.settings.AIRoast = bundle("2024-01-02")
	sender := &fakeSender{}

	report, err := newTestDispatchService(store, sender, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunEmpty, report.Status)
	assert.Equal(t, 2, report.TotalUsers)
	assert.Zero(t, report.UsersInSlot)
	assert.Equal(t, "09:00-09:30", report.Slot.Label)
	assert.Empty(t, sender.calls)
}

func TestRun_DispatchesPerIntensityAndUpdatesCounters(t *testing.T) {
	admin := member("boss", "09:00", "savage")
	admin.Role = model.RoleAdmin
	pending := member("new", "09:10", "mild")
	pending.OnboardingCompleted = false

	store := newFakeStore(
		member("m1", "09:15", "mild"),
		member("s1", "09:29", "savage"),
		member("x1", "09:00", "unknown"), // medium
		member("late", "09:30", "mild"),  // next slot
		admin,
		pending,
	)
	store.settings.AIRoast = bundle("2024-01-02")
	store.settings.WhatsappAutomationEnabled = false
	sender := &fakeSender{fail: map[string]string{"s1@example.com": "smtp down"}}

	report, err := newTestDispatchService(store, sender, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunDone, report.Status)
	assert.Equal(t, 6, report.TotalUsers)
	assert.Equal(t, 3, report.UsersInSlot)
	assert.Equal(t, []model.Intensity{model.IntensityMild, model.IntensityMedium, model.IntensitySavage}, report.Intensities)

	require.Len(t, sender.calls, 3)
	assert.Equal(t, []string{"m1"}, sender.calls[0].users)
	assert.Equal(t, "mild [NAME]", sender.calls[0].tier)
	assert.Equal(t, []string{"x1"}, sender.calls[1].users)
	assert.Equal(t, []string{"s1"}, sender.calls[2].users)
	for _, c := range sender.calls {
		assert.True(t, c.email)
		assert.False(t, c.whatsapp)
	}

	assert.Equal(t, 3, report.Total.Processed)
	assert.Equal(t, 2, report.Total.EmailsSent)
	assert.Equal(t, []string{"s1@example.com: email: smtp down"}, report.Total.Errors)
	assert.Len(t, report.ByIntensity[model.IntensitySavage].Errors, 1)

	require.Len(t, store.increments, 1)
	assert.Equal(t, "2024-01-02", store.increments[0].day)
	assert.Equal(t, model.SendTotals{EmailsSent: 2}, store.increments[0].totals)
	assert.Equal(t, 2, store.settings.EmailsSentToday)
	require.NotNil(t, store.settings.LastEmailSent)
	assert.Nil(t, store.settings.LastWhatsappSent)
}

func TestRun_SkipsTierWithoutContent(t *testing.T) {
	store := newFakeStore(member("m1", "09:15", "mild"), member("s1", "09:15", "savage"))
	b := bundle("2024-01-02")
	b.Savage = nil
	store.settings.AIRoast = b
	sender := &fakeSender{}

	report, err := newTestDispatchService(store, sender, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunDone, report.Status)
	assert.Equal(t, []model.Intensity{model.IntensityMild}, report.Intensities)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, 1, report.Total.Processed)
}

func TestRun_UsesConfiguredTimezone(t *testing.T) {
	// 03:50 UTC is 09:20 in Asia/Kolkata (+05:30).
	loc := time.FixedZone("IST", 5*3600+30*60)

	store := newFakeStore(member("a", "09:15", ""))
	store.settings.AIRoast = bundle("2024-01-02")
	sender := &fakeSender{}

	svc := NewDispatchService(store, store, sender, nil, loc, quietLogger()).
		WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 50, 0, 0, time.UTC) })
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "09:00-09:30", report.Slot.Label)
	assert.Equal(t, RunDone, report.Status)
}

func TestRun_StatsRefreshIsBestEffort(t *testing.T) {
	withHandle := member("a", "09:15", "")
	withHandle.ExternalUsername = ptr("tourist")
	store := newFakeStore(withHandle, member("b", "09:15", ""))
	store.settings.AIRoast = bundle("2024-01-02")
	stats := &fakeStats{err: errors.New("profile site down")}
	sender := &fakeSender{}

	report, err := newTestDispatchService(store, sender, stats).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunDone, report.Status)
	assert.Equal(t, map[string]string{"a": "tourist"}, stats.calls)
	assert.Equal(t, 2, report.Total.Processed)
}

func TestRun_SlowStatsRefreshIsCutOff(t *testing.T) {
	a := member("a", "09:15", "")
	a.ExternalUsername = ptr("tourist")
	b := member("b", "09:15", "")
	b.ExternalUsername = ptr("petr")
	store := newFakeStore(a, b)
	store.settings.AIRoast = bundle("2024-01-02")
	stats := &blockingStats{}
	sender := &fakeSender{}

	svc := newTestDispatchService(store, sender, stats).WithStatsTimeout(20 * time.Millisecond)

	start := time.Now()
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, RunDone, report.Status)
	assert.Equal(t, 2, report.Total.Processed)
	assert.Len(t, sender.calls, 1)
	assert.Equal(t, []error{context.DeadlineExceeded, context.DeadlineExceeded}, stats.results)
}

func TestRun_StorageErrors(t *testing.T) {
	boom := errors.New("db down")

	t.Run("settings", func(t *testing.T) {
		store := newFakeStore()
		store.settingsErr = boom
		_, err := newTestDispatchService(store, &fakeSender{}, nil).Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("users", func(t *testing.T) {
		store := newFakeStore()
		store.settings.AIRoast = bundle("2024-01-02")
		store.listErr = boom
		_, err := newTestDispatchService(store, &fakeSender{}, nil).Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("counters", func(t *testing.T) {
		store := newFakeStore(member("a", "09:15", ""))
		store.settings.AIRoast = bundle("2024-01-02")
		store.incrementErr = boom
		_, err := newTestDispatchService(store, &fakeSender{}, nil).Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}
