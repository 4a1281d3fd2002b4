package resolve

import (
	"testing"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestResolve_FirstCandidateWins(t *testing.T) {
	record := types.RawRecord{
		"patient_name": "Bob",
		"patientName":  "Alice",
	}

	v := Resolve(record, []string{"patient_name", "patientName"}, "Unknown")
	assert.Equal(t, "Bob", v)
}

func TestResolve_SkipsEmptyAndFallsThroughToNested(t *testing.T) {
	record := types.RawRecord{
		"patientName": "",
		"patient":     map[string]interface{}{"name": "Ann"},
	}

	v := Resolve(record, []string{"patientName", "patient.name"}, "Unknown")
	assert.Equal(t, "Ann", v)
}

func TestResolve_WhitespaceOnlyStringIsEmpty(t *testing.T) {
	record := types.RawRecord{"title": "   "}

	v := Resolve(record, []string{"title"}, "fallback")
	assert.Equal(t, "fallback", v)
}

func TestResolve_MissingIntermediateSegmentDoesNotPanic(t *testing.T) {
	record := types.RawRecord{
		"doctor": "scalar, not a map",
	}

	assert.NotPanics(t, func() {
		v := Resolve(record, []string{"doctor.name", "provider.name"}, "Unknown Doctor")
		assert.Equal(t, "Unknown Doctor", v)
	})
}

func TestResolve_NilRecordReturnsFallback(t *testing.T) {
	v := Resolve(nil, []string{"anything"}, "fallback")
	assert.Equal(t, "fallback", v)
}

func TestResolve_NestedRawRecordValue(t *testing.T) {
	record := types.RawRecord{
		"patient": types.RawRecord{"name": "Carol"},
	}

	v := Resolve(record, []string{"patient.name"}, "Unknown")
	assert.Equal(t, "Carol", v)
}

func TestResolveString_CoercesNumbers(t *testing.T) {
	record := types.RawRecord{"appointment_id": float64(42)}

	s := ResolveString(record, []string{"appointment_id"}, "")
	assert.Equal(t, "42", s)
}

func TestResolveString_SkipsNonScalarHit(t *testing.T) {
	record := types.RawRecord{
		"name":      map[string]interface{}{"first": "Ann"},
		"full_name": "Ann Smith",
	}

	s := ResolveString(record, []string{"name", "full_name"}, "Unknown")
	assert.Equal(t, "Ann Smith", s)
}

func TestResolveTime_RFC3339String(t *testing.T) {
	record := types.RawRecord{"timestamp": "2025-03-14T09:30:00Z"}

	got, ok := ResolveTime(record, []string{"timestamp"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), got)
}

func TestResolveTime_BareDate(t *testing.T) {
	record := types.RawRecord{"date": "2025-03-14"}

	got, ok := ResolveTime(record, []string{"date"})
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestResolveTime_UnixMillisNumber(t *testing.T) {
	record := types.RawRecord{"created_at": float64(1741944600000)}

	got, ok := ResolveTime(record, []string{"created_at"})
	assert.True(t, ok)
	assert.Equal(t, int64(1741944600), got.Unix())
}

func TestResolveTime_NoCandidateParses(t *testing.T) {
	record := types.RawRecord{"timestamp": "not a date"}

	_, ok := ResolveTime(record, []string{"timestamp", "created_at"})
	assert.False(t, ok)
}
