// Package notify delivers reminder messages to members.
//
// CHANNEL CAPABILITY:
// The dispatcher only knows the Channel interface. Each implementation owns
// its transport (SMTP, an HTTP gateway) and decides, per message, whether to
// send the templated variant (subject + body prepared by the content
// producer) or the plain fallback text. That decision is a single if on
// Message.Templated(); there is no registry and nothing is loaded lazily.
package notify

import (
	"context"
	"errors"

	"github.com/sakif/grindboard/internal/model"
)

// ErrNoAddress means the user has no address for this channel.
var ErrNoAddress = errors.New("notify: recipient has no address for channel")

// Message is a reminder already personalized for one recipient.
type Message struct {
	Subject  string
	Body     string
	Fallback string // full plain-text message, always present
}

// Templated reports whether the prepared subject/body pair should be used.
func (m Message) Templated() bool {
	return m.Subject != "" && m.Body != ""
}

// Channel sends one message to one user.
//
// Send must honour ctx: the dispatcher bounds every call with a timeout.
// A nil error means the provider accepted the message.
type Channel interface {
	Name() string
	Send(ctx context.Context, u model.User, msg Message) error
}
