package mapscale

import "testing"

func TestParseRatio(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"1:10000", 10000},
		{"Karte 1 : 15000 Ausgabe 2019", 15000},
		{"1: 7500", 7500},
	}
	for _, c := range cases {
		got, err := ParseRatio(c.text)
		if err != nil {
			t.Errorf("ParseRatio(%q): %v", c.text, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRatio(%q) = %d; want %d", c.text, got, c.want)
		}
	}
}

func TestParseRatioNoMatch(t *testing.T) {
	for _, text := range []string{"", "no caption here", "2:10000", "1:99"} {
		if _, err := ParseRatio(text); err != ErrNoScale {
			t.Errorf("ParseRatio(%q) = %v; want ErrNoScale", text, err)
		}
	}
}

func TestAppliesDefaultScale(t *testing.T) {
	if !AppliesDefaultScale(DefaultRatio) {
		t.Error("DefaultRatio must apply the default scale")
	}
	if AppliesDefaultScale(15000) {
		t.Error("15000 must require manual calibration")
	}
}
