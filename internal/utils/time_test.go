package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{"empty means local", "", false},
		{"explicit local", "Local", false},
		{"UTC", "UTC", false},
		{"IANA name", "America/New_York", false},
		{"invalid", "Not/AZone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation(%q) error = %v, wantErr %v", tt.timezone, err, tt.wantErr)
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation(%q) returned nil location", tt.timezone)
			}
		})
	}
}

func TestDayStringUsesLocation(t *testing.T) {
	// 23:30 UTC on March 5 is already March 6 in Tokyo
	instant := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	if got := DayString(instant, time.UTC); got != "2024-03-05" {
		t.Errorf("DayString(UTC) = %q, want 2024-03-05", got)
	}
	if got := DayString(instant, tokyo); got != "2024-03-06" {
		t.Errorf("DayString(Tokyo) = %q, want 2024-03-06", got)
	}
}

func TestPreviousDay(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-03-05", "2024-03-04"},
		{"2024-03-01", "2024-02-29"},
		{"2024-01-01", "2023-12-31"},
	}
	for _, tt := range tests {
		got, err := PreviousDay(tt.in)
		if err != nil {
			t.Fatalf("PreviousDay(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("PreviousDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := PreviousDay("03/05/2024"); err == nil {
		t.Error("PreviousDay() should reject non YYYY-MM-DD input")
	}
}

func TestValidateDateFormat(t *testing.T) {
	valid := []string{"2024-01-01", "2024-02-29"}
	invalid := []string{"", "2024-1-1", "2023-02-29", "2024/01/01", "yesterday"}

	for _, d := range valid {
		if !ValidateDateFormat(d) {
			t.Errorf("ValidateDateFormat(%q) = false, want true", d)
		}
	}
	for _, d := range invalid {
		if ValidateDateFormat(d) {
			t.Errorf("ValidateDateFormat(%q) = true, want false", d)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	if !ValidateTimezone("") || !ValidateTimezone("Local") || !ValidateTimezone("UTC") {
		t.Error("expected empty, Local and UTC to be valid")
	}
	if ValidateTimezone("Mars/Olympus") {
		t.Error("expected Mars/Olympus to be invalid")
	}
}
