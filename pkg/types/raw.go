package types

// RecordKind identifies which upstream producer a raw record came from
type RecordKind string

const (
	KindAppointment  RecordKind = "appointment"
	KindPatient      RecordKind = "patient"
	KindPrescription RecordKind = "prescription"
	KindActivityLog  RecordKind = "activity-log"
)

// RawRecord is an upstream record of unspecified shape. The same logical
// field may appear under several different keys, nested one level inside a
// sub-object, or be entirely absent. Consumers never mutate a RawRecord;
// field access goes through pkg/resolve only.
type RawRecord map[string]interface{}

// RawCollection groups the externally owned record collections that feed a
// single aggregation pass. The dashboard service snapshots all of them
// together so a pass is deterministic.
type RawCollection struct {
	ActivityLogs  []RawRecord `json:"activity_logs"`
	Patients      []RawRecord `json:"patients"`
	Appointments  []RawRecord `json:"appointments"`
	Prescriptions []RawRecord `json:"prescriptions"`
	Medicines     []RawRecord `json:"medicines"`
}
