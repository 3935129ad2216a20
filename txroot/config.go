package txroot

import "github.com/nyxstor/tomdb/errs"

// Config bundles the five arguments Prepare takes (spec §6's prepare()),
// mirroring the teacher's Limits/DefaultLimits/RelaxedLimits/StrictLimits
// trio.
type Config struct {
	AllocLogSize     int
	SqueezeThreshold int
	ObjLogSize       int
	Capacity         uint64
	MinAllocUnit     uint64
}

// DefaultConfig returns conservative defaults sized for a modest
// in-process store: a 64 MiB arena, 64-byte allocation grain, and log
// capacities generous enough that ordinary workloads squeeze
// infrequently.
func DefaultConfig() Config {
	return Config{
		AllocLogSize:     4096,
		SqueezeThreshold: 2048,
		ObjLogSize:       1024,
		Capacity:         64 << 20,
		MinAllocUnit:     64,
	}
}

// RelaxedConfig widens the logs for long-running, allocation-heavy
// transactions that would otherwise squeeze too often under
// DefaultConfig.
func RelaxedConfig() Config {
	c := DefaultConfig()
	c.AllocLogSize *= 4
	c.SqueezeThreshold *= 4
	c.ObjLogSize *= 4
	return c
}

// StrictConfig narrows the logs and arena, for constrained environments
// or tests that want squeeze and replay to trigger quickly.
func StrictConfig() Config {
	return Config{
		AllocLogSize:     64,
		SqueezeThreshold: 32,
		ObjLogSize:       32,
		Capacity:         1 << 20,
		MinAllocUnit:     64,
	}
}

// Validate checks the five prepare() arguments for internal consistency.
// A failure here is a caller bug, not a runtime condition, so it panics
// via errs.Programmer rather than returning an error — consistent with
// how arena.New treats a bad unit/capacity pair.
func (c Config) Validate() {
	if c.Capacity == 0 || c.MinAllocUnit == 0 {
		errs.Programmer("txroot: config capacity (%d) and min_alloc_unit (%d) must be positive", c.Capacity, c.MinAllocUnit)
	}
	if c.Capacity%c.MinAllocUnit != 0 {
		errs.Programmer("txroot: config capacity (%d) must be a multiple of min_alloc_unit (%d)", c.Capacity, c.MinAllocUnit)
	}
	if c.MinAllocUnit&(c.MinAllocUnit-1) != 0 {
		errs.Programmer("txroot: config min_alloc_unit (%d) must be a power of two", c.MinAllocUnit)
	}
	if c.AllocLogSize <= 0 || c.ObjLogSize <= 0 {
		errs.Programmer("txroot: config alloc_log_size (%d) and obj_log_size (%d) must be positive", c.AllocLogSize, c.ObjLogSize)
	}
	if c.SqueezeThreshold <= 0 || c.SqueezeThreshold >= c.AllocLogSize {
		errs.Programmer("txroot: config squeeze_threshold (%d) must be positive and less than alloc_log_size (%d)", c.SqueezeThreshold, c.AllocLogSize)
	}
}

// PrepareWithConfig validates cfg and initializes the allocator and logs
// from it. Equivalent to calling Prepare with cfg's fields spread out,
// plus up-front validation.
func (r *Root) PrepareWithConfig(cfg Config) error {
	cfg.Validate()
	return r.Prepare(cfg.AllocLogSize, cfg.SqueezeThreshold, cfg.ObjLogSize, cfg.Capacity, cfg.MinAllocUnit)
}
