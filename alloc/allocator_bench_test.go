package alloc

import "testing"

// Benchmark_Alloc_SmallUnits benchmarks single-unit allocations, the
// allocOneUnit fast path.
func Benchmark_Alloc_SmallUnits(b *testing.B) {
	a := newTestAllocator(b, 1<<24)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := a.Alloc(testUnit, testUnit); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark_Alloc_WithinL1 benchmarks multi-unit allocations that stay
// within a single L1 slotset.
func Benchmark_Alloc_WithinL1(b *testing.B) {
	a := newTestAllocator(b, 1<<26)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		size := testUnit * uint64(4+(i%32))
		if _, err := a.Alloc(size, size); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark_AllocFree_Churn benchmarks an alloc/free cycle at a fixed
// working-set size, exercising the free path's summary refresh.
func Benchmark_AllocFree_Churn(b *testing.B) {
	a := newTestAllocator(b, 1<<24)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ivs, err := a.Alloc(testUnit*8, testUnit)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Free(ivs); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark_Alloc_Greedy benchmarks greedy multi-interval allocation
// once the arena is fragmented enough to force it.
func Benchmark_Alloc_Greedy(b *testing.B) {
	a := newTestAllocator(b, 1<<24)

	// Fragment the arena: allocate everything, then free every other
	// unit-sized allocation so no single run is large.
	var held []Interval
	for {
		ivs, err := a.Alloc(testUnit, testUnit)
		if err != nil {
			break
		}
		held = append(held, ivs[0])
	}
	for i := 0; i < len(held); i += 2 {
		if err := a.Free([]Interval{held[i]}); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ivs, err := a.Alloc(testUnit*4, testUnit)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Free(ivs); err != nil {
			b.Fatal(err)
		}
	}
}
