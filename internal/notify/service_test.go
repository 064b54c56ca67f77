package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

type staffError struct{ msg string }

func (e staffError) Error() string       { return "validation: " + e.msg }
func (e staffError) UserMessage() string { return e.msg }

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "transport", err: &clinicapi.TransportError{Op: "GET /api/billing", Message: "x"}, want: unreachableMessage},
		{name: "request", err: fmt.Errorf("billing: create: %w", &clinicapi.RequestError{StatusCode: 400, Message: "Invalid amount"}), want: "Invalid amount"},
		{name: "user message", err: staffError{msg: "Please select an appointment"}, want: "Please select an appointment"},
		{name: "plain", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := FromError("", tt.err)
			assert.Equal(t, LevelError, n.Level)
			assert.Equal(t, TitleError, n.Title)
			assert.Equal(t, tt.want, n.Description)
		})
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(context.Background(), Success(TitleBillingCreated, "ok"))
		}()
	}
	wg.Wait()
	assert.Len(t, r.Notifications(), 20)
}

func TestLogNotifierWritesTitle(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewWithWriter("info", "json", &buf))
	n.Notify(context.Background(), Failure(TitleBillingError, "Invalid amount"))
	assert.Contains(t, buf.String(), `"title":"Billing Error"`)
}

func TestFromContextFansOut(t *testing.T) {
	perRequest := NewRecorder()
	global := NewRecorder()
	ctx := WithNotifier(context.Background(), perRequest)

	FromContext(ctx, global).Notify(ctx, Success(TitleAppointmentUpdated, "done"))

	require.Len(t, perRequest.Notifications(), 1)
	require.Len(t, global.Notifications(), 1)
	assert.Same(t, Notifier(global), FromContext(context.Background(), global))
}
