package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// Level classifies a notification for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Titles shown to staff.
const (
	TitleAppointmentScheduled = "Appointment Scheduled"
	TitleAppointmentUpdated   = "Appointment Updated"
	TitleAppointmentCanceled  = "Appointment Canceled"
	TitleBillingCreated       = "Billing Created"
	TitleBillingUpdated       = "Billing Updated"
	TitleBillingDeleted       = "Billing Deleted"
	TitleBillingError         = "Billing Error"
	TitleBillingSkipped       = "Billing Skipped"
	TitleInventoryRecorded    = "Inventory Recorded"
	TitleError                = "Error"
)

const unreachableMessage = "Cannot reach the clinic service. Please ensure the backend is running."

// Notification is a user-facing outcome of a mutation.
type Notification struct {
	Level       Level  `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Notifier delivers notifications to whoever presents them.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(title, description string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Description: description}
}

func Info(title, description string) Notification {
	return Notification{Level: LevelInfo, Title: title, Description: description}
}

func Failure(title, description string) Notification {
	return Notification{Level: LevelError, Title: title, Description: description}
}

// userMessager is implemented by errors that carry a message meant for staff.
type userMessager interface {
	UserMessage() string
}

// FromError converts err into a failure notification. Transport failures get
// a generic message; request failures keep the server text.
func FromError(title string, err error) Notification {
	if title == "" {
		title = TitleError
	}
	if err == nil {
		return Failure(title, "")
	}
	var um userMessager
	if errors.As(err, &um) {
		return Failure(title, um.UserMessage())
	}
	var te *clinicapi.TransportError
	if errors.As(err, &te) {
		return Failure(title, unreachableMessage)
	}
	var re *clinicapi.RequestError
	if errors.As(err, &re) {
		return Failure(title, re.Message)
	}
	return Failure(title, err.Error())
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	args := []any{"level", string(note.Level), "title", note.Title, "description", note.Description}
	if note.Level == LevelError {
		n.logger.Warn("notify: failure", args...)
		return
	}
	n.logger.Info("notify: outcome", args...)
}

// Recorder collects notifications in order. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Multi fans a notification out to every non-nil notifier.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}

type ctxKey struct{}

// WithNotifier attaches a per-request notifier to ctx.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier attached to ctx, or fallback.
func FromContext(ctx context.Context, fallback Notifier) Notifier {
	if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
		if fallback == nil {
			return n
		}
		return Multi(n, fallback)
	}
	return fallback
}
