package engine

import (
	"errors"
	"math"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default", func(*Config) {}, nil},
		{"zero rate", func(c *Config) { c.TargetRate = 0 }, ErrInvalidRate},
		{"nan rate", func(c *Config) { c.TargetRate = math.NaN() }, ErrInvalidRate},
		{"negative delta", func(c *Config) { c.MaxDeltaTime = -1 }, ErrInvalidMaxDelta},
		{"zero substeps", func(c *Config) { c.MaxSubSteps = 0 }, ErrInvalidSubSteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_FixedDeltaAndDefaults(t *testing.T) {
	cfg := Config{TargetRate: 60}
	if d := cfg.FixedDeltaTime(); math.Abs(d-1.0/60) > 1e-15 {
		t.Errorf("FixedDeltaTime = %v", d)
	}

	filled := Config{}.withDefaults()
	if filled.Validate() != nil {
		t.Errorf("withDefaults produced invalid config %+v", filled)
	}
	if filled.UseFixedTimeStep {
		t.Error("withDefaults should not flip the step mode")
	}
}
