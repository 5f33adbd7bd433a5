package model

import (
	"encoding/json"
	"time"
)

// MatrimonyDetails is the typed content of the matrimony_profiles.details
// JSON column.  Keeping it a struct rather than a free-form map means every
// field the portal understands is spelled out here, and unknown keys are
// dropped on write.
type MatrimonyDetails struct {
	DOB        string `json:"dob"` // date of birth, "2006-01-02"
	FatherName string `json:"father_name,omitempty"`
	MotherName string `json:"mother_name,omitempty"`
	Caste      string `json:"caste,omitempty"`
	Community  string `json:"community,omitempty"`
	Salary     string `json:"salary,omitempty"`
}

// Encode marshals the details for storage in the JSON column.
func (d MatrimonyDetails) Encode() ([]byte, error) { return json.Marshal(d) }

// DecodeDetails parses a details JSON column value.  An empty or NULL
// column decodes to the zero value.
func DecodeDetails(raw []byte) (MatrimonyDetails, error) {
	var d MatrimonyDetails
	if len(raw) == 0 {
		return d, nil
	}
	err := json.Unmarshal(raw, &d)
	return d, err
}

// MatrimonyProfile mirrors the matrimony_profiles table.  Zero or more
// profiles may exist per user; ContactPhone mirrors the login phone of the
// owning user and updates to it propagate back to the users row.
type MatrimonyProfile struct {
	ID           string
	UserID       string
	FullName     string
	Age          int
	Gender       string
	Occupation   string
	Location     string
	ContactPhone string
	ImageURL     string
	IsActive     bool
	Details      MatrimonyDetails
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgeFromDOB returns whole years elapsed between a "2006-01-02" date of
// birth and now.  A malformed or empty dob yields 0.
func AgeFromDOB(dob string, now time.Time) int {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0
	}
	years := now.Year() - t.Year()
	// Not yet had the birthday this year.
	if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NextPassword resolves which password, if any, a matrimony profile update
// implies for the owning user.  An explicit password always wins; otherwise
// a changed date of birth becomes the new password (the portal's
// DOB-as-password convention); otherwise the credentials stay untouched.
func NextPassword(currentDOB, newDOB, explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if newDOB != "" && newDOB != currentDOB {
		return newDOB, true
	}
	return "", false
}
