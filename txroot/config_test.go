package txroot

import "testing"

func TestConfig_DefaultValidates(t *testing.T) {
	DefaultConfig().Validate()
}

func TestConfig_RelaxedValidates(t *testing.T) {
	RelaxedConfig().Validate()
}

func TestConfig_StrictValidates(t *testing.T) {
	StrictConfig().Validate()
}

func TestConfig_Validate_RejectsZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	cfg := StrictConfig()
	cfg.Capacity = 0
	cfg.Validate()
}

func TestConfig_Validate_RejectsNonPowerOfTwoUnit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	cfg := StrictConfig()
	cfg.MinAllocUnit = 48
	cfg.Capacity = 48 * 100
	cfg.Validate()
}

func TestConfig_Validate_RejectsThresholdAboveLogSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	cfg := StrictConfig()
	cfg.SqueezeThreshold = cfg.AllocLogSize
	cfg.Validate()
}

func TestPrepareWithConfig_Success(t *testing.T) {
	r := Create(StrictConfig().Capacity)
	if err := r.PrepareWithConfig(StrictConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Destroy()
}
