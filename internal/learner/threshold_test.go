package learner

import "testing"

func TestEnoughSignal(t *testing.T) {
	tests := []struct {
		name        string
		relevant    int
		notRelevant int
		want        bool
	}{
		{"nothing rated", 0, 0, false},
		{"only relevant", 5, 0, false},
		{"only not relevant", 0, 5, false},
		{"one short on negative side", 2, 1, false},
		{"one short on positive side", 1, 2, false},
		{"exactly at floor", 2, 2, true},
		{"above floor", 5, 2, true},
		{"well above floor", 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnoughSignal(tt.relevant, tt.notRelevant); got != tt.want {
				t.Errorf("EnoughSignal(%d, %d) = %v, want %v", tt.relevant, tt.notRelevant, got, tt.want)
			}
		})
	}
}
