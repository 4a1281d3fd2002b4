package types

// StatSnapshot holds the derived dashboard statistics for one aggregation
// pass. It is recomputed fully on every pass and never partially updated.
// Rates are integer percentages in [0, 100]; a zero denominator yields 0.
type StatSnapshot struct {
	TotalAppointments     int `json:"total_appointments"`
	TodayAppointments     int `json:"today_appointments"`
	PendingAppointments   int `json:"pending_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
	UpcomingAppointments  int `json:"upcoming_appointments"`

	TotalPrescriptions int `json:"total_prescriptions"`
	TotalMedicines     int `json:"total_medicines"`
	TotalVaccines      int `json:"total_vaccines"`

	AppointmentCompletionRate int `json:"appointment_completion_rate"`

	// PrescriptionCompletionRate is the role-filtered share of the
	// clinic-wide prescription count, not a completed/total ratio: the
	// upstream prescription schema carries no status field.
	PrescriptionCompletionRate int `json:"prescription_completion_rate"`
}
