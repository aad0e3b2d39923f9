package scheduling

import (
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09:00", "09:00:00"},
		{"09:00:00", "09:00:00"},
		{"9:05", "09:05:00"},
		{"16:59:59", "16:59:59"},
		{"00:00", "00:00:00"},
		{"23:59:59", "23:59:59"},
		{"10:30:15.250", "10:30:15"},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "9", "24:00", "12:60", "12:00:60", "ab:cd", "10:00:00:00", "-1:00", "100:00"} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Errorf("ParseTimeOfDay(%q): expected error", in)
		}
	}
}

func TestTimeOfDay_AddMinutes(t *testing.T) {
	tests := []struct {
		start   string
		minutes int
		want    string
	}{
		{"10:00", 30, "10:30:00"},
		{"16:59", 30, "17:29:00"},
		{"09:00:30", 45, "09:45:30"},
		{"23:30", 60, "00:30:00"},
		{"00:10", -20, "23:50:00"},
		{"12:00", 0, "12:00:00"},
		{"08:00", 24 * 60, "08:00:00"},
	}
	for _, tt := range tests {
		got := MustParseTimeOfDay(tt.start).AddMinutes(tt.minutes)
		if got.String() != tt.want {
			t.Errorf("%s + %dm = %s, want %s", tt.start, tt.minutes, got, tt.want)
		}
	}
}

func TestTimeOfDay_Components(t *testing.T) {
	tod := NewTimeOfDay(14, 5, 9)
	if tod.Hour() != 14 || tod.Minute() != 5 || tod.Second() != 9 {
		t.Errorf("unexpected components %d:%d:%d", tod.Hour(), tod.Minute(), tod.Second())
	}
	if tod.HHMM() != "14:05" {
		t.Errorf("HHMM() = %s", tod.HHMM())
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(NewTimeOfDay(9, 0, 0))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"09:00:00"` {
		t.Errorf("expected \"09:00:00\", got %s", b)
	}

	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"09:00"`), &tod); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tod != NewTimeOfDay(9, 0, 0) {
		t.Errorf("expected 09:00:00, got %s", tod)
	}

	if err := json.Unmarshal([]byte(`900`), &tod); err == nil {
		t.Error("expected error for non-string time")
	}
}

func TestTimeOfDay_PG(t *testing.T) {
	tod := NewTimeOfDay(10, 30, 0)
	v, err := tod.TimeValue()
	if err != nil {
		t.Fatalf("TimeValue: %v", err)
	}
	if !v.Valid || v.Microseconds != int64(10*3600+30*60)*1_000_000 {
		t.Errorf("unexpected pg value %+v", v)
	}

	var back TimeOfDay
	if err := back.ScanTime(v); err != nil {
		t.Fatalf("ScanTime: %v", err)
	}
	if back != tod {
		t.Errorf("expected %s, got %s", tod, back)
	}

	if err := back.ScanTime(pgtype.Time{}); err == nil {
		t.Error("expected error scanning NULL")
	}
}
