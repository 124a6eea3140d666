package enums

import "testing"

func TestParseDurationCanonicalAndLegacy(t *testing.T) {
	tests := []struct {
		raw  string
		want Duration
	}{
		{"1D", Duration1D},
		{"7d", Duration7D},
		{" 14D ", Duration14D},
		{"1 day", Duration1D},
		{"3  Days", Duration3D},
		{"7 days", Duration7D},
		{"1 month", Duration30D},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.raw)
		if err != nil {
			t.Fatalf("ParseDuration(%q) unexpected error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDuration(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	for _, raw := range []string{"", "2D", "forever", "1 year"} {
		if _, err := ParseDuration(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDurationDays(t *testing.T) {
	expected := map[Duration]int{Duration1D: 1, Duration3D: 3, Duration7D: 7, Duration14D: 14, Duration30D: 30}
	for _, d := range Durations() {
		days, ok := d.Days()
		if !ok || days != expected[d] {
			t.Fatalf("%s: expected %d days, got %d (ok=%v)", d, expected[d], days, ok)
		}
	}
	if _, ok := Duration("90D").Days(); ok {
		t.Fatalf("unknown duration should not resolve")
	}
}

func TestNotificationTypeParse(t *testing.T) {
	for _, raw := range []string{"claim", "announcement", "trial"} {
		if _, err := ParseNotificationType(raw); err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
	}
	if _, err := ParseNotificationType("market_update"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDeveloperActionValidity(t *testing.T) {
	if !DeveloperActionSendTrial.IsValid() {
		t.Fatalf("send_trial should be valid")
	}
	if DeveloperAction("drop_tables").IsValid() {
		t.Fatalf("unknown action should be invalid")
	}
}
