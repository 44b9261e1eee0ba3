package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicClock_Now(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	tests := []struct {
		name string
		wall []time.Time
		want []time.Time
	}{
		{
			name: "advancing wall clock",
			wall: []time.Time{fixedTime, fixedTime.Add(time.Second)},
			want: []time.Time{fixedTime, fixedTime.Add(time.Second)},
		},
		{
			name: "wall clock steps back",
			wall: []time.Time{fixedTime, fixedTime.Add(-time.Hour), fixedTime.Add(time.Millisecond)},
			want: []time.Time{fixedTime, fixedTime, fixedTime.Add(time.Millisecond)},
		},
		{
			name: "local times are stamped in UTC",
			wall: []time.Time{fixedTime.In(local)},
			want: []time.Time{fixedTime},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := 0
			clock := newMonotonicClock(func() time.Time {
				now := tt.wall[i]
				i++
				return now
			})

			for _, want := range tt.want {
				got := clock.Now()
				assert.Equal(t, want, got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}
