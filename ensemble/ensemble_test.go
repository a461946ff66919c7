package ensemble

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pthm-cable/dogpop/sim"
	"github.com/pthm-cable/dogpop/telemetry"
)

func testParams() sim.Parameters {
	p := sim.DefaultParameters()
	p.MaxMonths = 24
	return p
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeeds_Deterministic(t *testing.T) {
	a, b := Seeds(5, 8), Seeds(5, 8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seed %d differs: %d vs %d", i, a[i], b[i])
		}
	}
	seen := map[int64]bool{}
	for _, s := range a {
		if seen[s] {
			t.Errorf("duplicate seed %d", s)
		}
		seen[s] = true
	}
}

func TestRun_IndependentOfWorkerCount(t *testing.T) {
	p := testParams()
	serial, err := Run(p, Options{Replicates: 6, Workers: 1, Seed: 3, Logger: quiet()})
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	parallel, err := Run(p, Options{Replicates: 6, Workers: 4, Seed: 3, Logger: quiet()})
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	for i := range serial.Runs {
		a, b := serial.Runs[i].Rows(), parallel.Runs[i].Rows()
		if len(a) != len(b) {
			t.Fatalf("replicate %d: %d vs %d rows", i, len(a), len(b))
		}
		for m := range a {
			if a[m] != b[m] {
				t.Fatalf("replicate %d month %d differs: %+v vs %+v", i, m, a[m], b[m])
			}
		}
	}
}

func TestFinals_EndOfRunCensus(t *testing.T) {
	p := testParams()
	res, err := Run(p, Options{Replicates: 3, Workers: 2, Seed: 5, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	finals := res.Finals(telemetry.MetricTotal)
	if len(finals) != 3 {
		t.Fatalf("expected 3 finals, got %d", len(finals))
	}
	for i, seed := range res.Seeds {
		m, err := sim.New(p, sim.Options{Seed: seed, Logger: quiet()})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		m.Run()
		if want := float64(m.Population()); finals[i] != want {
			t.Errorf("replicate %d: final %v, want post-run population %v", i, finals[i], want)
		}
	}
}

func TestBands_Ordering(t *testing.T) {
	p := testParams()
	res, err := Run(p, Options{Replicates: 10, Workers: 2, Seed: 11, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	bands, err := res.Bands(telemetry.MetricTotal)
	if err != nil {
		t.Fatalf("Bands: %v", err)
	}
	if len(bands) != p.MaxMonths {
		t.Fatalf("expected %d bands, got %d", p.MaxMonths, len(bands))
	}
	for _, b := range bands {
		if !(b.Min <= b.P10 && b.P10 <= b.P50 && b.P50 <= b.P90 && b.P90 <= b.Max) {
			t.Errorf("month %d bands out of order: %+v", b.Month, b)
		}
		if b.Mean < b.Min || b.Mean > b.Max || b.Std < 0 {
			t.Errorf("month %d mean/std out of range: %+v", b.Month, b)
		}
	}
	// Every replicate starts from the same seeded population.
	if b := bands[0]; b.Min != b.Max || b.Std != 0 || b.Mean != float64(p.InitialPopulation) {
		t.Errorf("month 0 should have no spread: %+v", b)
	}
}

func TestBands_UnknownMetric(t *testing.T) {
	res, err := Run(testParams(), Options{Replicates: 2, Seed: 1, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := res.Bands("weight"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestRun_SingleReplicate(t *testing.T) {
	res, err := Run(testParams(), Options{Replicates: 1, Seed: 1, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	bands, err := res.Bands(telemetry.MetricTotal)
	if err != nil {
		t.Fatalf("Bands: %v", err)
	}
	if bands[0].Std != 0 {
		t.Errorf("single replicate should report zero std, got %v", bands[0].Std)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	if _, err := Run(testParams(), Options{Replicates: 0}); !errors.Is(err, sim.ErrInvalidParameter) {
		t.Errorf("zero replicates: expected ErrInvalidParameter, got %v", err)
	}
	p := testParams()
	p.LitterSize = 0
	if _, err := Run(p, Options{Replicates: 2}); !errors.Is(err, sim.ErrInvalidParameter) {
		t.Errorf("bad params: expected ErrInvalidParameter, got %v", err)
	}
}
