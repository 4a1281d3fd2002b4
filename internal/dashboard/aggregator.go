// Package dashboard assembles the clinic operations dashboard: the ranked
// activity feed, the statistics snapshot, and the HTTP surface serving both.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/clinicpro/dashboard-service/internal/activity"
	"github.com/clinicpro/dashboard-service/pkg/monitoring"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// FeedLimit is the number of entries the activity feed surfaces
const FeedLimit = 5

// Query scopes one aggregation pass. Now is injected so a pass is a pure
// function of its inputs.
type Query struct {
	Range   types.DateRange
	Role    types.UserRole
	ActorID string
	Now     time.Time
}

// Aggregator derives the feed and statistics from the current snapshot of
// all upstream collections. It performs no I/O and holds no mutable state,
// so passes may run concurrently.
type Aggregator struct {
	metrics *monitoring.MetricsCollector
}

// NewAggregator creates a new aggregator
func NewAggregator(metrics *monitoring.MetricsCollector) *Aggregator {
	return &Aggregator{metrics: metrics}
}

// Aggregate computes the feed and statistics for one pass
func (a *Aggregator) Aggregate(logs []types.RawRecord, collections types.RawCollection, q Query) ([]types.NormalizedActivity, types.StatSnapshot) {
	start := time.Now()

	feed := a.BuildFeed(logs, collections, q)
	stats := a.BuildStats(collections, q)

	if a.metrics != nil {
		a.metrics.RecordAggregationPass(time.Since(start))
	}
	return feed, stats
}

// BuildFeed assembles the ranked activity feed. Activity-log entries are the
// authoritative source of things that happened; appointments, patients and
// prescriptions are fallback context, consulted in that order only while
// slots remain. The tier order is product policy and must not be reordered.
func (a *Aggregator) BuildFeed(logs []types.RawRecord, collections types.RawCollection, q Query) []types.NormalizedActivity {
	feed := make([]types.NormalizedActivity, 0, FeedLimit)

	// Tier 1: activity logs, newest first as delivered by the source
	for _, record := range logs {
		if len(feed) == FeedLimit {
			break
		}
		feed = append(feed, activity.Normalize(record, types.KindActivityLog, q.Now))
	}

	// Tier 2: appointments inside the query range, in input order
	for _, record := range collections.Appointments {
		if len(feed) == FeedLimit {
			break
		}
		if !inRange(record, types.KindAppointment, q.Range) {
			continue
		}
		feed = append(feed, activity.Normalize(record, types.KindAppointment, q.Now))
	}

	// Tier 3: patients by derived creation time, newest first
	if len(feed) < FeedLimit {
		for _, record := range patientsByCreation(collections.Patients) {
			if len(feed) == FeedLimit {
				break
			}
			feed = append(feed, activity.Normalize(record, types.KindPatient, q.Now))
		}
	}

	// Tier 4: prescriptions inside the query range
	for _, record := range collections.Prescriptions {
		if len(feed) == FeedLimit {
			break
		}
		if !inRange(record, types.KindPrescription, q.Range) {
			continue
		}
		feed = append(feed, activity.Normalize(record, types.KindPrescription, q.Now))
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].OccurredAt.After(feed[j].OccurredAt)
	})
	if len(feed) > FeedLimit {
		feed = feed[:FeedLimit]
	}
	return feed
}

// BuildStats computes the statistics snapshot. All counts and rates are
// recomputed fully on every pass.
func (a *Aggregator) BuildStats(collections types.RawCollection, q Query) types.StatSnapshot {
	appointments := filterByDoctor(collections.Appointments, q)

	stats := types.StatSnapshot{
		TotalAppointments: len(appointments),
		TotalMedicines:    len(collections.Medicines),
	}

	for _, record := range appointments {
		status := activity.AppointmentStatus(record)
		completed := status == "done" || status == "completed"

		when, hasTime := activity.RecordTime(record, types.KindAppointment)

		if hasTime && sameDay(when, q.Now) && q.Range.Contains(when) {
			stats.TodayAppointments++
		}
		if status == "pending" {
			stats.PendingAppointments++
		}
		if completed {
			stats.CompletedAppointments++
		}
		if hasTime && when.After(q.Now) && !completed && q.Range.Contains(when) {
			stats.UpcomingAppointments++
		}
	}
	stats.AppointmentCompletionRate = percentage(stats.CompletedAppointments, stats.TotalAppointments)

	prescriptions := filterByDoctor(collections.Prescriptions, q)
	stats.TotalPrescriptions = len(prescriptions)

	// Share-of-total, not completed/total: the upstream prescription schema
	// carries no status field.
	stats.PrescriptionCompletionRate = percentage(len(prescriptions), len(collections.Prescriptions))

	for _, record := range collections.Medicines {
		if activity.IsVaccine(record) {
			stats.TotalVaccines++
		}
	}

	return stats
}

// filterByDoctor keeps only records attributed to the querying doctor; other
// roles see the clinic-wide collection
func filterByDoctor(records []types.RawRecord, q Query) []types.RawRecord {
	if q.Role != types.RoleDoctor || q.ActorID == "" {
		return records
	}

	filtered := make([]types.RawRecord, 0, len(records))
	for _, record := range records {
		if activity.DoctorIdentity(record) == q.ActorID {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func inRange(record types.RawRecord, kind types.RecordKind, r types.DateRange) bool {
	when, ok := activity.RecordTime(record, kind)
	if !ok {
		return false
	}
	return r.Contains(when)
}

// patientsByCreation orders patients newest first by derived creation time;
// records without one sort last. The input slice is not mutated.
func patientsByCreation(patients []types.RawRecord) []types.RawRecord {
	ordered := make([]types.RawRecord, len(patients))
	copy(ordered, patients)

	sort.SliceStable(ordered, func(i, j int) bool {
		ti, _ := activity.RecordTime(ordered[i], types.KindPatient)
		tj, _ := activity.RecordTime(ordered[j], types.KindPatient)
		return ti.After(tj)
	})
	return ordered
}

// percentage computes round(n/d*100), defined as 0 when d is 0
func percentage(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
