package pricing

import (
	"testing"
	"time"
)

func TestTimeFlags(t *testing.T) {
	mods := exampleSnapshot().TimeModifiers
	at := func(h, m int) time.Time { return time.Date(2026, 2, 10, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		t         time.Time
		wantNight bool
		wantPeak  bool
	}{
		{"midday", at(12, 0), false, false},
		{"peak start inclusive", at(18, 0), false, true},
		{"peak end exclusive", at(22, 0), true, false},
		{"before midnight", at(23, 30), true, false},
		{"after midnight", at(5, 59), true, false},
		{"night end exclusive", at(6, 0), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			night, peak := TimeFlags(mods, tt.t)
			if night != tt.wantNight || peak != tt.wantPeak {
				t.Errorf("TimeFlags() = (%v, %v), want (%v, %v)", night, peak, tt.wantNight, tt.wantPeak)
			}
		})
	}
}

func TestTimeFlags_NoWindowNeverMatches(t *testing.T) {
	mods := []TimeModifier{{AppliesWhen: Night, Multiplier: d("1.2")}}
	night, peak := TimeFlags(mods, time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC))
	if night || peak {
		t.Errorf("modifier without window matched: night=%v peak=%v", night, peak)
	}
}

func TestParseClock(t *testing.T) {
	if m, err := parseClock("07:45"); err != nil || m != 465 {
		t.Errorf("parseClock(07:45) = %d, %v", m, err)
	}
	for _, bad := range []string{"", "7pm", "24:00", "12:60"} {
		if _, err := parseClock(bad); err == nil {
			t.Errorf("parseClock(%q) should fail", bad)
		}
	}
}
