// Package activity converts raw upstream records into the canonical feed
// representation and coordinates cached refreshes of the activity-log
// service.
package activity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicpro/dashboard-service/pkg/resolve"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// pathTable holds the ordered candidate paths for one record kind. Tables
// are built once at package load and shared by every normalization pass.
type pathTable struct {
	id            []string
	title         []string
	description   []string
	actor         []string
	timestamp     []string
	status        []string
	defaultTitle  string
	defaultActor  string
	defaultStatus string
}

var pathTables = map[types.RecordKind]pathTable{
	types.KindAppointment: {
		id:            []string{"id", "_id", "appointment_id", "appointmentId"},
		title:         []string{"patient_name", "patientName", "patient.name", "patient.full_name", "name"},
		description:   []string{"reason", "notes", "description", "type"},
		actor:         []string{"doctor_name", "doctorName", "doctor.name", "doctor", "provider_name"},
		timestamp:     []string{"date", "appointment_date", "appointmentDate", "start_time", "startTime", "created_at", "createdAt"},
		status:        []string{"status", "appointment_status", "appointmentStatus"},
		defaultTitle:  "Unknown Patient",
		defaultActor:  "Unknown Doctor",
		defaultStatus: "Scheduled",
	},
	types.KindPatient: {
		id:            []string{"id", "_id", "patient_id", "patientId"},
		title:         []string{"name", "full_name", "fullName", "patient_name", "patientName"},
		description:   []string{"email", "phone", "contact", "address"},
		actor:         []string{"registered_by", "registeredBy", "created_by", "createdBy"},
		timestamp:     []string{"created_at", "createdAt", "registered_at", "registeredAt", "registration_date", "date_added"},
		status:        []string{"status", "state"},
		defaultTitle:  "Unknown Patient",
		defaultActor:  "Reception",
		defaultStatus: "Registered",
	},
	types.KindPrescription: {
		id:            []string{"id", "_id", "prescription_id", "prescriptionId"},
		title:         []string{"medicine_name", "medicineName", "medicine.name", "medication", "drug_name"},
		description:   []string{"dosage", "instructions", "notes", "description"},
		actor:         []string{"doctor_name", "doctorName", "doctor.name", "prescribed_by", "prescribedBy"},
		timestamp:     []string{"date", "prescribed_at", "prescribedAt", "created_at", "createdAt"},
		status:        []string{"status"},
		defaultTitle:  "Prescription",
		defaultActor:  "Unknown Doctor",
		defaultStatus: "Issued",
	},
	types.KindActivityLog: {
		id:            []string{"id", "_id", "log_id", "logId"},
		title:         []string{"action", "activity", "event", "title"},
		description:   []string{"details", "description", "message"},
		actor:         []string{"name", "user_name", "userName", "user.name", "performed_by", "performedBy"},
		timestamp:     []string{"timestamp", "created_at", "createdAt", "time", "date"},
		status:        []string{"status"},
		defaultTitle:  "Activity",
		defaultActor:  "System",
		defaultStatus: "Completed",
	},
}

// Free-text detail extraction for appointment status-change log entries. The
// upstream logger writes details like "Appointment ID: 42 ... New Status:
// Completed"; both captures must hit or the raw details pass through.
const statusChangeAction = "Updated Appointment Status"

var (
	appointmentIDPattern = regexp.MustCompile(`Appointment ID: (\d+)`)
	newStatusPattern     = regexp.MustCompile(`New Status: (\w+)`)
)

// Normalize converts a raw record of the given kind into a
// NormalizedActivity. It never fails: every attribute that cannot be
// resolved degrades to its kind-specific default, and a record without a
// usable timestamp is stamped with now, never left zero.
func Normalize(record types.RawRecord, kind types.RecordKind, now time.Time) types.NormalizedActivity {
	table, ok := pathTables[kind]
	if !ok {
		table = pathTables[types.KindActivityLog]
	}

	occurredAt, ok := resolve.ResolveTime(record, table.timestamp)
	if !ok {
		occurredAt = now
	}

	return types.NormalizedActivity{
		ID:          normalizedID(record, kind, table),
		Kind:        kind,
		Title:       resolveTitle(record, table),
		Description: resolveDescription(record, kind, table),
		OccurredAt:  occurredAt,
		Status:      resolve.ResolveString(record, table.status, table.defaultStatus),
		Actor:       resolve.ResolveString(record, table.actor, table.defaultActor),
	}
}

// normalizedID prefixes the source ID with the record kind so IDs stay
// unique across kinds within one merge pass. A record with no resolvable ID
// gets a random one.
func normalizedID(record types.RawRecord, kind types.RecordKind, table pathTable) string {
	sourceID := resolve.ResolveString(record, table.id, "")
	if sourceID == "" {
		sourceID = uuid.New().String()
	}
	return fmt.Sprintf("%s-%s", kind, sourceID)
}

// resolveTitle falls back to composing first and last name parts, which some
// upstream producers send instead of a single name field
func resolveTitle(record types.RawRecord, table pathTable) string {
	if title := resolve.ResolveString(record, table.title, ""); title != "" {
		return title
	}

	first := resolve.ResolveString(record, []string{"first_name", "firstName", "patient.first_name", "patient.firstName"}, "")
	last := resolve.ResolveString(record, []string{"last_name", "lastName", "patient.last_name", "patient.lastName"}, "")
	if composed := strings.TrimSpace(first + " " + last); composed != "" {
		return composed
	}

	return table.defaultTitle
}

func resolveDescription(record types.RawRecord, kind types.RecordKind, table pathTable) string {
	description := resolve.ResolveString(record, table.description, "")

	if kind == types.KindActivityLog {
		action := resolve.ResolveString(record, []string{"action", "activity", "event"}, "")
		if action == statusChangeAction {
			if rewritten, ok := describeStatusChange(description); ok {
				return rewritten
			}
		}
	}

	return description
}

// describeStatusChange rewrites a status-change detail string into a compact
// sentence. Both patterns must match; otherwise the caller keeps the raw
// details unmodified.
func describeStatusChange(details string) (string, bool) {
	idMatch := appointmentIDPattern.FindStringSubmatch(details)
	statusMatch := newStatusPattern.FindStringSubmatch(details)
	if idMatch == nil || statusMatch == nil {
		return "", false
	}
	return fmt.Sprintf("Appointment #%s marked as %s", idMatch[1], statusMatch[1]), true
}
