package inventory

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	"github.com/wolfman30/clinic-nexus/internal/clinicapi/clinicapitest"
	"github.com/wolfman30/clinic-nexus/internal/notify"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

type fixture struct {
	srv      *clinicapitest.Server
	tracker  *Tracker
	recorder *notify.Recorder
	appt     records.Appointment
	gauze    records.InventoryItem
	syringe  records.InventoryItem
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := clinicapitest.New(t)
	appt := srv.AddAppointment(records.Appointment{
		PatientID: 1, DoctorID: 2, Date: "2025-03-01", Time: "09:00", Duration: 30,
		VisitType: records.VisitProcedure, Status: records.StatusDone,
	})
	gauze := srv.AddInventoryItem(records.InventoryItem{
		Name: "Gauze", Type: "Supply", StockQuantity: 40, ReorderThreshold: 10,
		UnitPrice: records.MustAmount("0.50"), ActiveStatus: true,
	})
	syringe := srv.AddInventoryItem(records.InventoryItem{
		Name: "Syringe", Type: "Supply", StockQuantity: 12, ReorderThreshold: 10,
		UnitPrice: records.MustAmount("1.25"), ActiveStatus: true,
	})
	rec := notify.NewRecorder()
	client := clinicapi.NewClient(srv.URL, logging.Discard())
	return fixture{
		srv:      srv,
		tracker:  NewTracker(client, rec, logging.Discard()),
		recorder: rec,
		appt:     appt,
		gauze:    gauze,
		syringe:  syringe,
	}
}

func TestRecordUsageDecrementsStockAndRaisesAlerts(t *testing.T) {
	f := newFixture(t)

	result, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{
		{ItemID: f.gauze.ID, Quantity: 5},
		{ItemID: f.syringe.ID, Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Gauze (Used: 5)", "Syringe (Used: 3)"}, result.Processed)
	assert.Equal(t, []string{"REORDER ALERT: Syringe (Stock: 9, Threshold: 10)"}, result.ReorderAlerts)

	gauze, _ := f.srv.InventoryItem(f.gauze.ID)
	syringe, _ := f.srv.InventoryItem(f.syringe.ID)
	assert.Equal(t, 35, gauze.StockQuantity)
	assert.Equal(t, 9, syringe.StockQuantity)
	assert.Len(t, f.srv.Usage(), 2)

	notes := f.recorder.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.TitleInventoryRecorded, notes[0].Title)
}

func TestRecordUsageMergesDuplicateItems(t *testing.T) {
	f := newFixture(t)

	result, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{
		{ItemID: f.gauze.ID, Quantity: 2},
		{ItemID: f.gauze.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gauze (Used: 5)"}, result.Processed)

	usage := f.srv.Usage()
	require.Len(t, usage, 1)
	assert.Equal(t, 5, usage[0].QuantityUsed)
}

func TestRecordUsageChecksAllStockBeforeWriting(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{
		{ItemID: f.gauze.ID, Quantity: 5},
		{ItemID: f.syringe.ID, Quantity: 13},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Insufficient stock for Syringe", ue.UserMessage())

	gauze, _ := f.srv.InventoryItem(f.gauze.ID)
	assert.Equal(t, 40, gauze.StockQuantity)
	assert.Empty(t, f.srv.Usage())
	assert.Empty(t, f.srv.RequestsTo(http.MethodPut, "/api/inventory"))

	notes := f.recorder.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
	assert.Equal(t, "Insufficient stock for Syringe", notes[0].Description)
}

func TestRecordUsageRejectsInactiveAndUnknownItems(t *testing.T) {
	f := newFixture(t)
	retired := f.srv.AddInventoryItem(records.InventoryItem{Name: "Old Tape", StockQuantity: 100, ReorderThreshold: 5})

	_, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{{ItemID: retired.ID, Quantity: 1}})
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Insufficient stock for Old Tape", ue.Reason)

	_, err = f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{{ItemID: 999, Quantity: 1}})
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Insufficient stock for Item ID 999", ue.Reason)
}

func TestRecordUsageUnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.RecordUsage(context.Background(), 999, []Usage{{ItemID: f.gauze.ID, Quantity: 1}})
	assert.True(t, errors.Is(err, ErrAppointmentNotFound))
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Appointment not found", ue.UserMessage())
}

func TestRecordUsageValidatesInput(t *testing.T) {
	f := newFixture(t)

	for _, usage := range [][]Usage{
		nil,
		{{ItemID: f.gauze.ID, Quantity: 0}},
		{{ItemID: 0, Quantity: 2}},
	} {
		_, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, usage)
		assert.True(t, errors.Is(err, ErrInvalidUsage), "usage %v", usage)
	}
	assert.Empty(t, f.srv.RequestsTo(http.MethodGet, "/api/appointments"))
}

func TestRecordUsageNotifiesContextRecorder(t *testing.T) {
	f := newFixture(t)
	request := notify.NewRecorder()
	ctx := notify.WithNotifier(context.Background(), request)

	_, err := f.tracker.RecordUsage(ctx, f.appt.ID, []Usage{{ItemID: f.gauze.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Len(t, request.Notifications(), 1)
	assert.Len(t, f.recorder.Notifications(), 1)
}

func TestUsageForJoinsItemNames(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.RecordUsage(context.Background(), f.appt.ID, []Usage{{ItemID: f.gauze.ID, Quantity: 2}})
	require.NoError(t, err)

	lines, err := f.tracker.UsageFor(context.Background(), f.appt.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Gauze", lines[0].ItemName)
	assert.Equal(t, 2, lines[0].QuantityUsed)

	lines, err = f.tracker.UsageFor(context.Background(), f.appt.ID+100)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestReorderQuantity(t *testing.T) {
	cases := []struct {
		threshold int
		want      int
	}{
		{threshold: 0, want: 50},
		{threshold: 10, want: 50},
		{threshold: 25, want: 50},
		{threshold: 40, want: 80},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReorderQuantity(records.InventoryItem{ReorderThreshold: tc.threshold}))
	}
}

func TestLowStockSkipsInactiveItems(t *testing.T) {
	items := []records.InventoryItem{
		{ID: 1, Name: "At threshold", StockQuantity: 10, ReorderThreshold: 10, ActiveStatus: true},
		{ID: 2, Name: "Plenty", StockQuantity: 11, ReorderThreshold: 10, ActiveStatus: true},
		{ID: 3, Name: "Retired", StockQuantity: 0, ReorderThreshold: 10},
	}
	got := LowStock(items)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Item.ID)
	assert.Equal(t, 50, got[0].Quantity)
}

func TestSweepPublishesGauge(t *testing.T) {
	f := newFixture(t)
	f.srv.AddInventoryItem(records.InventoryItem{Name: "Gloves", StockQuantity: 3, ReorderThreshold: 20, ActiveStatus: true})
	reg := prometheus.NewRegistry()
	s := NewSweeper(f.tracker, metrics.NewInventoryMetrics(reg), logging.Discard())

	reorders, err := s.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, reorders, 1)
	assert.Equal(t, "Gloves", reorders[0].Item.Name)

	expected := `
# HELP clinic_inventory_low_stock_items Active inventory items at or below their reorder threshold
# TYPE clinic_inventory_low_stock_items gauge
clinic_inventory_low_stock_items 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "clinic_inventory_low_stock_items"))
}

func TestSweepBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.FailNext(http.MethodGet, "/api/inventory", http.StatusInternalServerError, "down")
	s := NewSweeper(f.tracker, nil, logging.Discard())

	_, err := s.Sweep(context.Background())
	assert.Error(t, err)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	s := NewSweeper(f.tracker, nil, logging.Discard())
	assert.Error(t, s.Start("not a schedule"))
}
