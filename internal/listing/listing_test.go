package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

func TestCollectionRefetchesAfterMutation(t *testing.T) {
	calls := 0
	store := []string{"a"}
	c := NewCollection("letters", func(context.Context) ([]string, error) {
		calls++
		return append([]string(nil), store...), nil
	}, 0, logging.Discard())

	items, err := c.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)

	_, _ = c.Items(context.Background())
	assert.Equal(t, 1, calls, "cached until invalidated")

	err = c.Mutate(context.Background(), func(context.Context) error {
		store = append(store, "b")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	items, _ = c.Items(context.Background())
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestCollectionFailedMutationKeepsCache(t *testing.T) {
	calls := 0
	c := NewCollection("letters", func(context.Context) ([]string, error) {
		calls++
		return []string{"a"}, nil
	}, 0, logging.Discard())
	_, _ = c.Items(context.Background())

	boom := errors.New("boom")
	err := c.Mutate(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCollectionMaxAge(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	c := NewCollection("letters", func(context.Context) ([]string, error) {
		calls++
		return nil, nil
	}, time.Minute, logging.Discard())
	c.now = func() time.Time { return now }

	_, _ = c.Items(context.Background())
	now = now.Add(30 * time.Second)
	_, _ = c.Items(context.Background())
	assert.Equal(t, 1, calls)

	now = now.Add(time.Minute)
	_, _ = c.Items(context.Background())
	assert.Equal(t, 2, calls)
}

func TestCollectionLoadError(t *testing.T) {
	c := NewCollection("letters", func(context.Context) ([]string, error) {
		return nil, errors.New("down")
	}, 0, logging.Discard())
	_, err := c.Items(context.Background())
	assert.ErrorContains(t, err, "listing: load letters")
}

func TestFilterAppointments(t *testing.T) {
	rows := []records.AppointmentRow{
		{ID: 1, PatientName: "John Smith", DoctorName: "Dr. Lee", VisitType: records.VisitCheckUp},
		{ID: 2, PatientName: "Ann Park", DoctorName: "Dr. Moss", VisitType: records.VisitProcedure, Notes: "follow-up on knee"},
		{ID: 3, PatientName: "Bo Chen", DoctorName: "Dr. Lee", VisitType: records.VisitEmergency},
	}

	tests := []struct {
		term string
		want []int
	}{
		{term: "", want: []int{1, 2, 3}},
		{term: "lee", want: []int{1, 3}},
		{term: "PROCEDURE", want: []int{2}},
		{term: "knee", want: []int{2}},
		{term: "zzz", want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := FilterAppointments(rows, tt.term)
			ids := make([]int, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
