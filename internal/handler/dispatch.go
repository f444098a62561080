package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/grindboard/internal/dispatch"
	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/service"
)

// MaxReportedErrors bounds the error list in a run summary. ErrorCount
// always carries the full number.
const MaxReportedErrors = 10

// Runner runs one dispatch cycle. *service.DispatchService implements it.
type Runner interface {
	Run(ctx context.Context) (*service.RunReport, error)
}

// DispatchHandler serves the cron-triggered dispatch endpoint.
// Authorization happens in auth.RequireSecret before this handler runs.
type DispatchHandler struct {
	runner Runner
	logger *slog.Logger
}

func NewDispatchHandler(runner Runner, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{runner: runner, logger: logger}
}

// HandleDispatch runs one cycle and reports it.
//
// HTTP: GET /api/cron/dispatch
//
// Every early exit is a 200 with its own body; only an unexpected failure
// is a 500 with {"error": "..."} carrying the stage that failed. The
// underlying driver or network error goes to the log only.
func (h *DispatchHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error("dispatch run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": failureReason(err)})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse(report))
}

// Summary is the headline of a completed run.
type Summary struct {
	CurrentTime          string            `json:"currentTime"`
	TimeSlot             string            `json:"timeSlot"`
	UsersInSlot          int               `json:"usersInSlot"`
	Processed            int               `json:"processed"`
	EmailsSent           int               `json:"emailsSent"`
	WhatsappSent         int               `json:"whatsappSent"`
	IntensitiesProcessed []model.Intensity `json:"intensitiesProcessed"`
	ErrorCount           int               `json:"errorCount"`
}

// Detailed breaks a completed run down per intensity.
type Detailed struct {
	RunID           string                              `json:"runId"`
	Date            string                              `json:"date"`
	Slot            dispatch.Slot                       `json:"slot"`
	TotalUsers      int                                 `json:"totalUsers"`
	EmailEnabled    bool                                `json:"emailEnabled"`
	WhatsappEnabled bool                                `json:"whatsappEnabled"`
	ByIntensity     map[model.Intensity]dispatch.Result `json:"byIntensity"`
}

// DoneResponse is the body of a run that reached the dispatch stage.
type DoneResponse struct {
	Message  string   `json:"message"`
	Summary  Summary  `json:"summary"`
	Detailed Detailed `json:"detailed"`
	Errors   []string `json:"errors,omitempty"`
}

type disabledResponse struct {
	Message           string `json:"message"`
	AutomationEnabled bool   `json:"automationEnabled"`
}

type noContentResponse struct {
	Message     string `json:"message"`
	Date        string `json:"date"`
	HasMessages bool   `json:"hasMessages"`
}

type emptyResponse struct {
	Message     string `json:"message"`
	CurrentTime string `json:"currentTime"`
	TimeSlot    string `json:"timeSlot"`
	TotalUsers  int    `json:"totalUsers"`
	UsersInSlot int    `json:"usersInSlot"`
}

// RunResponse renders a report as the JSON body for its exit state.
// cmd/dispatch prints the same value.
func RunResponse(r *service.RunReport) any {
	currentTime := r.Now.Format("15:04")

	switch r.Status {
	case service.RunDisabled:
		return disabledResponse{Message: "Automation is disabled", AutomationEnabled: false}
	case service.RunNoContent:
		return noContentResponse{Message: "No messages generated for today", Date: r.Date, HasMessages: false}
	case service.RunEmpty:
		return emptyResponse{
			Message:     "No users scheduled for this time slot",
			CurrentTime: currentTime,
			TimeSlot:    r.Slot.Label,
			TotalUsers:  r.TotalUsers,
			UsersInSlot: 0,
		}
	}

	resp := DoneResponse{
		Message: "Dispatch completed",
		Summary: Summary{
			CurrentTime:          currentTime,
			TimeSlot:             r.Slot.Label,
			UsersInSlot:          r.UsersInSlot,
			Processed:            r.Total.Processed,
			EmailsSent:           r.Total.EmailsSent,
			WhatsappSent:         r.Total.WhatsappSent,
			IntensitiesProcessed: r.Intensities,
			ErrorCount:           len(r.Total.Errors),
		},
		Detailed: Detailed{
			RunID:           r.RunID,
			Date:            r.Date,
			Slot:            r.Slot,
			TotalUsers:      r.TotalUsers,
			EmailEnabled:    r.EmailEnabled,
			WhatsappEnabled: r.WhatsappEnabled,
			ByIntensity:     r.ByIntensity,
		},
	}
	if n := len(r.Total.Errors); n > 0 {
		resp.Errors = r.Total.Errors[:min(n, MaxReportedErrors)]
	}
	return resp
}

// failureReason keeps the service's own "service/<name>: <stage>" prefix of a
// wrapped error and drops whatever it wraps. Errors without that shape get a
// generic message.
func failureReason(err error) string {
	parts := strings.SplitN(err.Error(), ": ", 3)
	if len(parts) < 3 || !strings.HasPrefix(parts[0], "service/") {
		return "dispatch failed"
	}
	return parts[0] + ": " + parts[1]
}
