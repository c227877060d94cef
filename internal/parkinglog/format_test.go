package parkinglog

import "testing"

func TestFormatParkingTime(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, ""},
		{-1, ""},
		{0.005, "< 1m"},
		{0.5, "30m"},
		{1, "1h"},
		{3.25, "3h 15m"},
		{24, "1d"},
		{26, "1d 2h"},
		{24.5, "1d 30m"},
		{50, "2d 2h"},
	}
	for _, c := range cases {
		if got := FormatParkingTime(c.hours); got != c.want {
			t.Fatalf("FormatParkingTime(%v) = %q, want %q", c.hours, got, c.want)
		}
	}
}
