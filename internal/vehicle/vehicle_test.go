package vehicle

import "testing"

func TestCurrentStatus(t *testing.T) {
	cases := []struct {
		dir  Direction
		want CurrentStatus
	}{
		{DirectionIn, StatusInside},
		{DirectionOut, StatusOutside},
		{"", StatusUnknown},
		{"sideways", StatusUnknown},
	}
	for _, c := range cases {
		v := Vehicle{LastDirection: c.dir}
		if got := v.CurrentStatus(); got != c.want {
			t.Fatalf("CurrentStatus(%q) = %s, want %s", c.dir, got, c.want)
		}
	}
}
