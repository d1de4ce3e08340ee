package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

func TestSupersedes(t *testing.T) {
	t.Parallel()

	march := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		stored domain.AlertState
		next   domain.AlertState
		want   bool
	}{
		{
			name:   "higher threshold same interval",
			stored: domain.AlertState{LastInterval: march, LastThreshold: 50},
			next:   domain.AlertState{LastInterval: march, LastThreshold: 90},
			want:   false,
		},
		{
			name:   "lower threshold same interval",
			stored: domain.AlertState{LastInterval: march, LastThreshold: 90},
			next:   domain.AlertState{LastInterval: march, LastThreshold: 50},
			want:   true,
		},
		{
			name:   "equal threshold same interval",
			stored: domain.AlertState{LastInterval: march, LastThreshold: 90},
			next:   domain.AlertState{LastInterval: march, LastThreshold: 90},
			want:   true,
		},
		{
			name:   "same instant in another zone",
			stored: domain.AlertState{LastInterval: march, LastThreshold: 90},
			next:   domain.AlertState{LastInterval: march.In(time.FixedZone("PST", -8*3600)), LastThreshold: 50},
			want:   true,
		},
		{
			name:   "new interval resets",
			stored: domain.AlertState{LastInterval: march, LastThreshold: 100},
			next:   domain.AlertState{LastInterval: april, LastThreshold: 50},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, supersedes(&tt.stored, &tt.next))
		})
	}
}
