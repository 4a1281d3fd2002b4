package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/types"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func testQuery(role types.UserRole, actorID string) Query {
	return Query{
		Range: types.DateRange{
			From: testNow.AddDate(0, 0, -30),
			To:   testNow.AddDate(0, 0, 30),
		},
		Role:    role,
		ActorID: actorID,
		Now:     testNow,
	}
}

func stamp(offset time.Duration) string {
	return testNow.Add(offset).Format(time.RFC3339)
}

func TestBuildFeed_TieredTopUp(t *testing.T) {
	logs := []types.RawRecord{
		{"id": "log-1", "action": "Added Patient", "timestamp": stamp(-1 * time.Hour)},
		{"id": "log-2", "action": "Logged In", "timestamp": stamp(-2 * time.Hour)},
	}

	appointments := make([]types.RawRecord, 0, 10)
	for i := 0; i < 10; i++ {
		appointments = append(appointments, types.RawRecord{
			"id":           fmt.Sprintf("apt-%d", i),
			"patient_name": fmt.Sprintf("Patient %d", i),
			"date":         stamp(time.Duration(-3-i) * time.Hour),
		})
	}

	feed := NewAggregator(nil).BuildFeed(logs, types.RawCollection{Appointments: appointments}, testQuery(types.RoleAdmin, ""))

	assert.Len(t, feed, FeedLimit)
	assert.Equal(t, "activity-log-log-1", feed[0].ID)
	assert.Equal(t, "activity-log-log-2", feed[1].ID)
	assert.Equal(t, "appointment-apt-0", feed[2].ID)
	assert.Equal(t, "appointment-apt-1", feed[3].ID)
	assert.Equal(t, "appointment-apt-2", feed[4].ID)
}

func TestBuildFeed_ActivityLogsAloneCapAtFive(t *testing.T) {
	logs := make([]types.RawRecord, 0, 8)
	for i := 0; i < 8; i++ {
		logs = append(logs, types.RawRecord{
			"id":        fmt.Sprintf("log-%d", i),
			"action":    "Logged In",
			"timestamp": stamp(time.Duration(-i) * time.Hour),
		})
	}

	feed := NewAggregator(nil).BuildFeed(logs, types.RawCollection{}, testQuery(types.RoleAdmin, ""))

	assert.Len(t, feed, FeedLimit)
	for i, entry := range feed {
		assert.Equal(t, fmt.Sprintf("activity-log-log-%d", i), entry.ID)
	}
}

func TestBuildFeed_PatientsTopUpNewestFirst(t *testing.T) {
	logs := []types.RawRecord{
		{"id": "log-1", "action": "Logged In", "timestamp": stamp(-1 * time.Hour)},
	}
	patients := []types.RawRecord{
		{"id": "p-old", "name": "Old Patient", "created_at": stamp(-72 * time.Hour)},
		{"id": "p-new", "name": "New Patient", "created_at": stamp(-2 * time.Hour)},
	}

	feed := NewAggregator(nil).BuildFeed(logs, types.RawCollection{Patients: patients}, testQuery(types.RoleAdmin, ""))

	assert.Len(t, feed, 3)
	assert.Equal(t, "activity-log-log-1", feed[0].ID)
	assert.Equal(t, "patient-p-new", feed[1].ID)
	assert.Equal(t, "patient-p-old", feed[2].ID)
}

func TestBuildFeed_OutOfRangeAppointmentsExcluded(t *testing.T) {
	appointments := []types.RawRecord{
		{"id": "apt-in", "date": stamp(-24 * time.Hour)},
		{"id": "apt-out", "date": testNow.AddDate(0, -6, 0).Format(time.RFC3339)},
	}

	feed := NewAggregator(nil).BuildFeed(nil, types.RawCollection{Appointments: appointments}, testQuery(types.RoleAdmin, ""))

	assert.Len(t, feed, 1)
	assert.Equal(t, "appointment-apt-in", feed[0].ID)
}

func TestBuildFeed_FinalOrderIsByOccurredAtDescending(t *testing.T) {
	logs := []types.RawRecord{
		{"id": "log-older", "action": "Logged In", "timestamp": stamp(-5 * time.Hour)},
	}
	appointments := []types.RawRecord{
		{"id": "apt-newer", "date": stamp(-1 * time.Hour)},
	}

	feed := NewAggregator(nil).BuildFeed(logs, types.RawCollection{Appointments: appointments}, testQuery(types.RoleAdmin, ""))

	assert.Len(t, feed, 2)
	assert.Equal(t, "appointment-apt-newer", feed[0].ID)
	assert.Equal(t, "activity-log-log-older", feed[1].ID)
}

func TestBuildFeed_EmptyInputsYieldEmptyFeed(t *testing.T) {
	feed := NewAggregator(nil).BuildFeed(nil, types.RawCollection{}, testQuery(types.RoleAdmin, ""))
	assert.Empty(t, feed)
}

func TestBuildStats_AdminScenario(t *testing.T) {
	collections := types.RawCollection{
		Appointments: []types.RawRecord{
			{"id": "1", "status": "Done", "date": testNow.Format(time.RFC3339)},
			{"id": "2", "status": "Pending", "date": testNow.Format(time.RFC3339)},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleAdmin, ""))

	assert.Equal(t, 2, stats.TotalAppointments)
	assert.Equal(t, 2, stats.TodayAppointments)
	assert.Equal(t, 1, stats.PendingAppointments)
	assert.Equal(t, 1, stats.CompletedAppointments)
	assert.Equal(t, 50, stats.AppointmentCompletionRate)
}

func TestBuildStats_ZeroAppointmentsZeroRate(t *testing.T) {
	stats := NewAggregator(nil).BuildStats(types.RawCollection{}, testQuery(types.RoleAdmin, ""))

	assert.Equal(t, 0, stats.TotalAppointments)
	assert.Equal(t, 0, stats.AppointmentCompletionRate)
	assert.Equal(t, 0, stats.PrescriptionCompletionRate)
}

func TestBuildStats_DoctorRoleFiltersAppointments(t *testing.T) {
	collections := types.RawCollection{
		Appointments: []types.RawRecord{
			{"id": "1", "doctor_id": float64(7), "status": "Completed", "date": stamp(-1 * time.Hour)},
			{"id": "2", "doctor_id": float64(8), "status": "Completed", "date": stamp(-1 * time.Hour)},
			{"id": "3", "doctor_id": float64(7), "status": "Pending", "date": stamp(-1 * time.Hour)},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleDoctor, "7"))

	assert.Equal(t, 2, stats.TotalAppointments)
	assert.Equal(t, 1, stats.CompletedAppointments)
	assert.Equal(t, 1, stats.PendingAppointments)
	assert.Equal(t, 50, stats.AppointmentCompletionRate)
}

func TestBuildStats_PrescriptionRateIsShareOfTotal(t *testing.T) {
	collections := types.RawCollection{
		Prescriptions: []types.RawRecord{
			{"id": "1", "doctor_id": "7", "date": stamp(-1 * time.Hour)},
			{"id": "2", "doctor_id": "7", "date": stamp(-1 * time.Hour)},
			{"id": "3", "doctor_id": "8", "date": stamp(-1 * time.Hour)},
			{"id": "4", "doctor_id": "9", "date": stamp(-1 * time.Hour)},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleDoctor, "7"))

	assert.Equal(t, 2, stats.TotalPrescriptions)
	assert.Equal(t, 50, stats.PrescriptionCompletionRate)
}

func TestBuildStats_UpcomingExcludesCompletedAndPast(t *testing.T) {
	collections := types.RawCollection{
		Appointments: []types.RawRecord{
			{"id": "1", "status": "Scheduled", "date": stamp(48 * time.Hour)},
			{"id": "2", "status": "Completed", "date": stamp(48 * time.Hour)},
			{"id": "3", "status": "Scheduled", "date": stamp(-48 * time.Hour)},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleAdmin, ""))

	assert.Equal(t, 1, stats.UpcomingAppointments)
}

func TestBuildStats_MedicineAndVaccineTotals(t *testing.T) {
	collections := types.RawCollection{
		Medicines: []types.RawRecord{
			{"id": "1", "category": "Vaccine"},
			{"id": "2", "category": "Antibiotic"},
			{"id": "3", "type": "vaccine"},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleAdmin, ""))

	assert.Equal(t, 3, stats.TotalMedicines)
	assert.Equal(t, 2, stats.TotalVaccines)
}

func TestBuildStats_StatusComparisonIsCaseInsensitive(t *testing.T) {
	collections := types.RawCollection{
		Appointments: []types.RawRecord{
			{"id": "1", "status": "DONE", "date": stamp(-1 * time.Hour)},
			{"id": "2", "status": "pEnDiNg", "date": stamp(-1 * time.Hour)},
		},
	}

	stats := NewAggregator(nil).BuildStats(collections, testQuery(types.RoleAdmin, ""))

	assert.Equal(t, 1, stats.CompletedAppointments)
	assert.Equal(t, 1, stats.PendingAppointments)
}

func TestAggregate_DeterministicAcrossPasses(t *testing.T) {
	logs := []types.RawRecord{
		{"id": "log-1", "action": "Logged In", "timestamp": stamp(-1 * time.Hour)},
	}
	collections := types.RawCollection{
		Appointments: []types.RawRecord{
			{"id": "1", "status": "Done", "date": stamp(-2 * time.Hour)},
		},
	}

	agg := NewAggregator(nil)
	q := testQuery(types.RoleAdmin, "")

	feedA, statsA := agg.Aggregate(logs, collections, q)
	feedB, statsB := agg.Aggregate(logs, collections, q)

	assert.Equal(t, feedA, feedB)
	assert.Equal(t, statsA, statsB)
}
