package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/notify"
)

// Defaults used when Options leaves a field at zero.
const (
	DefaultBatchSize   = 10
	DefaultBatchPause  = time.Second
	DefaultSendTimeout = 20 * time.Second
)

// Options tunes the dispatcher.
type Options struct {
	BatchSize   int           // users sent to concurrently
	BatchPause  time.Duration // unconditional sleep between batches
	SendTimeout time.Duration // bound on a single channel send
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchPause < 0 {
		o.BatchPause = 0
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	return o
}

// Result aggregates the outcome of sending to a group of users.
type Result struct {
	Processed    int      `json:"processed"`
	EmailsSent   int      `json:"emailsSent"`
	WhatsappSent int      `json:"whatsappSent"`
	Errors       []string `json:"errors"`
}

// Add merges o into r.
func (r *Result) Add(o Result) {
	r.Processed += o.Processed
	r.EmailsSent += o.EmailsSent
	r.WhatsappSent += o.WhatsappSent
	r.Errors = append(r.Errors, o.Errors...)
}

// Totals is the counter delta this result represents.
func (r Result) Totals() model.SendTotals {
	return model.SendTotals{EmailsSent: r.EmailsSent, WhatsappSent: r.WhatsappSent}
}

// outcome is what one user's send routine produced.
type outcome struct {
	emailSent    bool
	whatsappSent bool
	errors       []string
}

// Dispatcher sends personalized reminders over the configured channels.
//
// CONCURRENCY MODEL:
// Users are cut into batches of Options.BatchSize. Inside a batch every
// user's routine runs in its own goroutine and the batch waits for all of
// them (settle-all, never fail-fast). Batches run one after another with an
// unconditional pause in between. Peak concurrency is therefore BatchSize
// users, each with at most two in-flight channel calls.
type Dispatcher struct {
	email    notify.Channel
	whatsapp notify.Channel
	opts     Options
	logger   *slog.Logger

	// sleep is the inter-batch pause; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires the two channels. Either may be nil when that channel
// is not configured; its leg is then skipped as if disabled.
func NewDispatcher(email, whatsapp notify.Channel, opts Options, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		email:    email,
		whatsapp: whatsapp,
		opts:     opts.withDefaults(),
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Dispatch sends tier's message to users.
//
// An empty user list or an unusable tier returns a zero Result without
// touching any channel. Channel failures are recorded in Result.Errors as
// "<email>: <channel>: <reason>" and never stop other sends. If ctx ends
// between batches, the remaining batches are not started.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	intensity model.Intensity,
	users []model.User,
	tier *model.RoastTier,
	emailEnabled, whatsappEnabled bool,
) Result {
	res := Result{Errors: []string{}}
	if len(users) == 0 || !tier.Usable() {
		return res
	}

	emailOn := emailEnabled && d.email != nil
	whatsappOn := whatsappEnabled && d.whatsapp != nil

	for start := 0; start < len(users); start += d.opts.BatchSize {
		if start > 0 {
			if err := d.sleep(ctx, d.opts.BatchPause); err != nil {
				d.logger.Warn("dispatch interrupted between batches",
					slog.String("intensity", string(intensity)),
					slog.Int("remaining", len(users)-start),
					slog.String("error", err.Error()),
				)
				break
			}
		}

		end := min(start+d.opts.BatchSize, len(users))
		batch := users[start:end]

		p := pool.NewWithResults[outcome]()
		for _, u := range batch {
			p.Go(func() outcome {
				return d.sendOne(ctx, u, tier, emailOn, whatsappOn)
			})
		}
		for _, o := range p.Wait() {
			res.Processed++
			if o.emailSent {
				res.EmailsSent++
			}
			if o.whatsappSent {
				res.WhatsappSent++
			}
			res.Errors = append(res.Errors, o.errors...)
		}

		d.logger.Debug("batch settled",
			slog.String("intensity", string(intensity)),
			slog.Int("from", start),
			slog.Int("size", len(batch)),
		)
	}

	return res
}

// sendOne runs both legs for one user. The legs are independent: neither
// waits for nor depends on the other.
func (d *Dispatcher) sendOne(ctx context.Context, u model.User, tier *model.RoastTier, emailOn, whatsappOn bool) outcome {
	msg := Personalize(tier, u)

	// No phone number: the WhatsApp leg is skipped, not failed.
	_, hasPhone := u.Phone()
	whatsappOn = whatsappOn && hasPhone

	var (
		o           outcome
		emailErr    error
		whatsappErr error
		wg          conc.WaitGroup
	)
	if emailOn {
		wg.Go(func() { emailErr = d.send(ctx, d.email, u, msg) })
	}
	if whatsappOn {
		wg.Go(func() { whatsappErr = d.send(ctx, d.whatsapp, u, msg) })
	}
	wg.Wait()

	if emailOn {
		if emailErr == nil {
			o.emailSent = true
		} else {
			o.errors = append(o.errors, d.failure(u, d.email, emailErr))
		}
	}
	if whatsappOn {
		if whatsappErr == nil {
			o.whatsappSent = true
		} else {
			o.errors = append(o.errors, d.failure(u, d.whatsapp, whatsappErr))
		}
	}
	return o
}

// send calls one channel with a bounded context. A panic inside the channel
// is turned into an error for this user only.
func (d *Dispatcher) send(ctx context.Context, ch notify.Channel, u model.User, msg notify.Message) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	var pc panics.Catcher
	pc.Try(func() { err = ch.Send(ctx, u, msg) })
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("panic: %v", r.Value)
	}
	return err
}

func (d *Dispatcher) failure(u model.User, ch notify.Channel, err error) string {
	d.logger.Warn("send failed",
		slog.String("channel", ch.Name()),
		slog.String("user", u.ID),
		slog.String("error", err.Error()),
	)
	return fmt.Sprintf("%s: %s: %s", u.Email, ch.Name(), err.Error())
}

// Personalize fills the [NAME] placeholder with the user's first name.
func Personalize(tier *model.RoastTier, u model.User) notify.Message {
	r := strings.NewReplacer(model.NamePlaceholder, u.FirstName())
	return notify.Message{
		Subject:  r.Replace(tier.EmailSubject),
		Body:     r.Replace(tier.EmailBody),
		Fallback: r.Replace(tier.FullMessage),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
