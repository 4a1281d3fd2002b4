package activity

import (
	"strings"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/resolve"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// Field accessors shared by the aggregator. These reuse the normalizer's
// candidate-path tables so filtering and normalization always agree on what
// a record's date, status, or doctor is.

// RecordTime derives the timestamp for a record of the given kind
func RecordTime(record types.RawRecord, kind types.RecordKind) (time.Time, bool) {
	table, ok := pathTables[kind]
	if !ok {
		return time.Time{}, false
	}
	return resolve.ResolveTime(record, table.timestamp)
}

// AppointmentStatus resolves an appointment's status, lowercased for
// comparison. Missing statuses resolve to the scheduling default.
func AppointmentStatus(record types.RawRecord) string {
	table := pathTables[types.KindAppointment]
	return strings.ToLower(resolve.ResolveString(record, table.status, table.defaultStatus))
}

// DoctorIdentity resolves the doctor attributed to an appointment or
// prescription. Producers disagree on whether this is an ID or a name, so
// the value is coerced to a string and compared as-is.
func DoctorIdentity(record types.RawRecord) string {
	return resolve.ResolveString(record, []string{
		"doctor_id", "doctorId", "doctor.id", "doctor",
		"doctor_name", "doctorName", "doctor.name", "provider_id", "provider_name",
	}, "")
}

// IsVaccine reports whether a medicine record is categorized as a vaccine
func IsVaccine(record types.RawRecord) bool {
	category := resolve.ResolveString(record, []string{
		"category", "type", "medicine_type", "medicineType", "classification",
	}, "")
	return strings.EqualFold(category, "vaccine")
}
