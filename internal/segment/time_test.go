package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEffortTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		seconds int
		wantErr bool
	}{
		{raw: "4:05", seconds: 245},
		{raw: "0:59", seconds: 59},
		{raw: "12:00", seconds: 720},
		{raw: "1:02:03", seconds: 3723},
		{raw: "2:00:00", seconds: 7200},
		{raw: "65s", seconds: 65},
		{raw: "7s", seconds: 7},
		{raw: "", wantErr: true},
		{raw: "4m05", wantErr: true},
		{raw: "4:05s", wantErr: true},
		{raw: "s", wantErr: true},
		{raw: "1:2:3:4", wantErr: true},
		{raw: "-4:05", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEffortTime(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnrecognizedTimeFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.seconds, got)
		})
	}
}

func TestPace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		time      string
		distanceM float64
		want      float64
	}{
		{name: "minutes and seconds", time: "4:05", distanceM: 1000, want: 4.1},
		{name: "seconds only", time: "65s", distanceM: 1000, want: 1.1},
		{name: "seconds equivalent to minute split", time: "1:05", distanceM: 1000, want: 1.1},
		{name: "hours counted", time: "1:00:00", distanceM: 10000, want: 6.0},
		{name: "longer distance", time: "4:05", distanceM: 1630, want: 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Pace(tt.time, tt.distanceM)
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPaceErrors(t *testing.T) {
	t.Parallel()

	_, err := Pace("fast", 1000)
	require.ErrorIs(t, err, ErrUnrecognizedTimeFormat)

	_, err = Pace("4:05", 0)
	require.Error(t, err)
}
