package sim

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/dogpop/components"
)

func newTestScheduler(n int) *Scheduler {
	s := NewScheduler(rand.New(rand.NewSource(1)))
	for i := 1; i <= n; i++ {
		s.Spawn(components.Identity{ID: uint64(i)}, components.LifeCycle{})
	}
	return s
}

func TestScheduler_ActivatesEachAgentOnce(t *testing.T) {
	s := newTestScheduler(20)

	seen := map[uint64]int{}
	s.Step(func(a Agent) { seen[a.Identity.ID]++ })

	if len(seen) != 20 {
		t.Fatalf("expected 20 activations, got %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("agent %d activated %d times", id, n)
		}
	}
}

func TestScheduler_OrderChangesBetweenSteps(t *testing.T) {
	s := newTestScheduler(20)

	var first, second []uint64
	s.Step(func(a Agent) { first = append(first, a.Identity.ID) })
	s.Step(func(a Agent) { second = append(second, a.Identity.ID) })

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two consecutive steps used the same activation order")
	}
}

func TestScheduler_SpawnDuringStepIsDeferred(t *testing.T) {
	s := newTestScheduler(3)

	activated := 0
	next := uint64(100)
	s.Step(func(a Agent) {
		activated++
		next++
		s.Spawn(components.Identity{ID: next}, components.LifeCycle{})
		if s.Len() != 3 {
			t.Errorf("population changed mid-step: %d", s.Len())
		}
	})

	if activated != 3 {
		t.Errorf("newborns were activated in their birth step: %d activations", activated)
	}
	if s.Len() != 6 {
		t.Errorf("expected 6 agents after apply, got %d", s.Len())
	}
}

func TestScheduler_KillDuringStepIsDeferred(t *testing.T) {
	s := newTestScheduler(10)

	s.Step(func(a Agent) {
		if a.Identity.ID%2 == 0 {
			s.Kill(a.Entity)
		}
	})
	if s.Len() != 5 {
		t.Fatalf("expected 5 survivors, got %d", s.Len())
	}

	s.Each(func(id *components.Identity, lc *components.LifeCycle) {
		if id.ID%2 == 0 {
			t.Errorf("killed agent %d still present", id.ID)
		}
	})

	// Killed agents never reappear in later steps.
	s.Step(func(a Agent) {
		if a.Identity.ID%2 == 0 {
			t.Errorf("killed agent %d activated", a.Identity.ID)
		}
	})
}

func TestScheduler_MutationsPersist(t *testing.T) {
	s := newTestScheduler(4)
	s.Step(func(a Agent) { a.LifeCycle.Age += 3 })

	s.Each(func(id *components.Identity, lc *components.LifeCycle) {
		if lc.Age != 3 {
			t.Errorf("agent %d age %d, want 3", id.ID, lc.Age)
		}
	})
}
