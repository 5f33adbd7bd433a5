package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeFromDOB(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  string
		want int
	}{
		{"birthday already passed this year", "1990-03-01", 36},
		{"birthday later this year", "1990-09-01", 35},
		{"birthday today", "1990-06-15", 36},
		{"birthday tomorrow", "1990-06-16", 35},
		{"empty dob", "", 0},
		{"malformed dob", "15/06/1990", 0},
		{"future dob", "2030-01-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeFromDOB(tt.dob, now))
		})
	}
}

func TestNextPassword(t *testing.T) {
	// Explicit password wins over everything.
	pw, changed := NextPassword("1990-01-01", "1991-02-02", "hunter2")
	assert.True(t, changed)
	assert.Equal(t, "hunter2", pw)

	// A changed DOB becomes the password.
	pw, changed = NextPassword("1990-01-01", "1991-02-02", "")
	assert.True(t, changed)
	assert.Equal(t, "1991-02-02", pw)

	// Unchanged DOB means no credential change.
	_, changed = NextPassword("1990-01-01", "1990-01-01", "")
	assert.False(t, changed)

	// No DOB in the update means no credential change.
	_, changed = NextPassword("1990-01-01", "", "")
	assert.False(t, changed)
}

func TestDetailsEncodeDecode(t *testing.T) {
	d := MatrimonyDetails{
		DOB:        "1992-08-21",
		FatherName: "R. Kumar",
		Caste:      "none",
		Salary:     "45000",
	}
	raw, err := d.Encode()
	require.NoError(t, err)

	got, err := DecodeDetails(raw)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDecodeDetailsEmptyColumn(t *testing.T) {
	got, err := DecodeDetails(nil)
	require.NoError(t, err)
	assert.Equal(t, MatrimonyDetails{}, got)
}

func TestDecodeDetailsDropsUnknownKeys(t *testing.T) {
	raw := []byte(`{"dob":"1990-01-01","legacy_field":"ignored","caste":"x"}`)
	got, err := DecodeDetails(raw)
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", got.DOB)
	assert.Equal(t, "x", got.Caste)

	out, err := got.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "legacy_field")
}
