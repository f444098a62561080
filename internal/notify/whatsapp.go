package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/grindboard/internal/model"
)

// WhatsApp posts reminders to an HTTP WhatsApp gateway.
//
// Gateway contract:
//
//	POST <url>
//	Authorization: Bearer <key>
//	{"to": "+919876543210", "message": "..."}
//
// Any 2xx is a success unless the body says {"success": false}.
type WhatsApp struct {
	url    string
	apiKey string
	client *http.Client
}

// NewWhatsApp builds the gateway channel. A nil client gets a 30 s timeout
// as a backstop; the dispatcher's per-send context is normally shorter.
func NewWhatsApp(url, apiKey string, client *http.Client) *WhatsApp {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WhatsApp{url: url, apiKey: apiKey, client: client}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

type whatsAppRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type whatsAppResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// Send delivers msg to the user's phone number.
func (w *WhatsApp) Send(ctx context.Context, u model.User, msg Message) error {
	phone, ok := u.Phone()
	if !ok {
		return ErrNoAddress
	}

	text := msg.Fallback
	if msg.Templated() {
		text = "*" + msg.Subject + "*\n\n" + msg.Body
	}

	payload, err := json.Marshal(whatsAppRequest{To: phone, Message: text})
	if err != nil {
		return fmt.Errorf("whatsapp: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gr whatsAppResponse
	if len(body) > 0 && json.Unmarshal(body, &gr) == nil && gr.Success != nil && !*gr.Success {
		if gr.Error == "" {
			gr.Error = "gateway rejected message"
		}
		return fmt.Errorf("whatsapp: %s", gr.Error)
	}
	return nil
}
