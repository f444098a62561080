package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/grindboard/internal/dispatch"
	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/repository"
)

// RunStatus is the terminal state of one dispatch run.
//
//	START → DISABLED | NO_CONTENT | EMPTY | (dispatching → counters updated) → DONE
//
// Every status is a success; failures surface as the error from Run.
type RunStatus string

const (
	RunDisabled  RunStatus = "disabled"
	RunNoContent RunStatus = "no_content"
	RunEmpty     RunStatus = "empty"
	RunDone      RunStatus = "done"
)

// RunReport describes what a dispatch run did.
type RunReport struct {
	RunID       string
	Status      RunStatus
	Now         time.Time
	Date        string
	Slot        dispatch.Slot
	TotalUsers  int
	UsersInSlot int

	EmailEnabled    bool
	WhatsappEnabled bool

	// Intensities lists the groups that had users and content, in dispatch order.
	Intensities []model.Intensity
	ByIntensity map[model.Intensity]dispatch.Result
	Total       dispatch.Result
}

// Sender is the part of *dispatch.Dispatcher the service needs.
type Sender interface {
	Dispatch(ctx context.Context, intensity model.Intensity, users []model.User,
		tier *model.RoastTier, emailEnabled, whatsappEnabled bool) dispatch.Result
}

// DispatchService runs one reminder cycle per call.
type DispatchService struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
	sender   Sender
	stats    StatsUpdater
	statsTTL time.Duration
	loc      *time.Location
	now      Clock
	logger   *slog.Logger
}

// NewDispatchService wires a DispatchService. A nil stats updater becomes
// NoopStats; a nil location means UTC.
func NewDispatchService(
	users repository.UserRepository,
	settings repository.SettingsRepository,
	sender Sender,
	stats StatsUpdater,
	loc *time.Location,
	logger *slog.Logger,
) *DispatchService {
	if stats == nil {
		stats = NoopStats{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DispatchService{
		users:    users,
		settings: settings,
		sender:   sender,
		stats:    stats,
		statsTTL: defaultStatsTimeout,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the time source. Used by tests and the CLI's -at flag.
func (s *DispatchService) WithClock(c Clock) *DispatchService {
	s.now = c
	return s
}

// WithStatsTimeout changes how long the pre-send stats refresh may take.
func (s *DispatchService) WithStatsTimeout(d time.Duration) *DispatchService {
	s.statsTTL = d
	return s
}

// Run executes one cycle. The wall clock is read once, so the slot, the
// content date and the counter day always agree.
func (s *DispatchService) Run(ctx context.Context) (*RunReport, error) {
	now := s.now().In(s.loc)
	report := &RunReport{
		RunID:       xid.New().String(),
		Now:         now,
		Date:        now.Format(DateLayout),
		Slot:        dispatch.CurrentSlot(now),
		ByIntensity: map[model.Intensity]dispatch.Result{},
		Intensities: []model.Intensity{},
		Total:       dispatch.Result{Errors: []string{}},
	}
	log := s.logger.With(slog.String("runID", report.RunID), slog.String("slot", report.Slot.Label))

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dispatch: loading settings: %w", err)
	}
	report.EmailEnabled = settings.EmailAutomationEnabled
	report.WhatsappEnabled = settings.WhatsappAutomationEnabled

	if !settings.AutomationEnabled {
		report.Status = RunDisabled
		log.Info("dispatch skipped: automation disabled")
		return report, nil
	}

	content := TodayContent(settings, report.Date)
	if content == nil {
		report.Status = RunNoContent
		log.Info("dispatch skipped: no content for today", slog.String("date", report.Date))
		return report, nil
	}

	all, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dispatch: listing users: %w", err)
	}
	report.TotalUsers = len(all)

	eligible := dispatch.FilterEligible(all, report.Slot)
	report.UsersInSlot = len(eligible)
	if len(eligible) == 0 {
		report.Status = RunEmpty
		log.Info("dispatch skipped: no users in slot", slog.Int("totalUsers", len(all)))
		return report, nil
	}

	refreshStats(ctx, s.stats, eligible, s.statsTTL, log)

	groups := dispatch.GroupByIntensity(eligible)
	for _, intensity := range model.Intensities {
		members := groups[intensity]
		tier, ok := content.Tier(intensity)
		if len(members) == 0 || !ok {
			continue
		}
		res := s.sender.Dispatch(ctx, intensity, members, tier,
			settings.EmailAutomationEnabled, settings.WhatsappAutomationEnabled)

		report.Intensities = append(report.Intensities, intensity)
		report.ByIntensity[intensity] = res
		report.Total.Add(res)

		log.Info("intensity group dispatched",
			slog.String("intensity", string(intensity)),
			slog.Int("users", len(members)),
			slog.Int("emailsSent", res.EmailsSent),
			slog.Int("whatsappSent", res.WhatsappSent),
			slog.Int("errors", len(res.Errors)),
		)
	}

	if err := s.settings.IncrementCounters(ctx, report.Date, report.Total.Totals(), now); err != nil {
		return nil, fmt.Errorf("service/dispatch: updating counters: %w", err)
	}

	report.Status = RunDone
	log.Info("dispatch finished",
		slog.Int("processed", report.Total.Processed),
		slog.Int("emailsSent", report.Total.EmailsSent),
		slog.Int("whatsappSent", report.Total.WhatsappSent),
		slog.Int("errors", len(report.Total.Errors)),
	)
	return report, nil
}
