package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
)

func TestParseEventKind(t *testing.T) {
	cases := map[string]enrollmentModel.EventKind{
		"create":   enrollmentModel.EventCreate,
		"INSERT":   enrollmentModel.EventCreate,
		" Update ": enrollmentModel.EventUpdate,
		"delete":   enrollmentModel.EventDelete,
	}
	for in, want := range cases {
		got, err := ParseEventKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEventKind("truncate")
	assert.Error(t, err)
}

func TestToModel_DateForms(t *testing.T) {
	short := "2024-03-05"
	long := "2024-12-31T23:00:00-03:00"
	blank := "  "
	p := &EnrollmentPayload{
		EnrollmentType:        " Recurring ",
		EnrollmentStatus:      "Active",
		EnrollmentStartDate:   &short,
		EnrollmentEndDate:     &long,
		EnrollmentSessionDate: &blank,
	}
	m, err := p.ToModel()
	require.NoError(t, err)
	assert.Equal(t, enrollmentModel.EnrollmentType("recurring"), m.EnrollmentType)
	assert.Equal(t, enrollmentModel.EnrollmentStatus("active"), m.EnrollmentStatus)
	assert.True(t, m.EnrollmentStartDate.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	// the calendar date is the one written, not the UTC instant
	assert.True(t, m.EnrollmentEndDate.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, m.EnrollmentSessionDate)

	var nilPayload *EnrollmentPayload
	m, err = nilPayload.ToModel()
	require.NoError(t, err)
	assert.Nil(t, m)

	bad := "05/03/2024"
	_, err = (&EnrollmentPayload{EnrollmentStartDate: &bad}).ToModel()
	assert.Error(t, err)
}
