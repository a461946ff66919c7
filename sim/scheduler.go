package sim

import (
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/dogpop/components"
)

// Agent is the mutable handle an activation callback receives.
// Pointers are valid only for the duration of the callback.
type Agent struct {
	Entity    ecs.Entity
	Identity  *components.Identity
	LifeCycle *components.LifeCycle
}

// Scheduler holds the live population in an ECS world and activates it in a
// fresh random order each step. Spawns and kills requested during a step are
// buffered and applied once iteration completes.
type Scheduler struct {
	world       *ecs.World
	agentMapper *ecs.Map2[components.Identity, components.LifeCycle]
	agentFilter *ecs.Filter2[components.Identity, components.LifeCycle]

	rng *rand.Rand

	stepping bool
	order    []activation
	births   []pendingBirth
	deaths   []ecs.Entity
	count    int
}

type activation struct {
	entity ecs.Entity
	id     uint64
}

type pendingBirth struct {
	identity  components.Identity
	lifeCycle components.LifeCycle
}

// NewScheduler creates an empty scheduler drawing its order from rng.
func NewScheduler(rng *rand.Rand) *Scheduler {
	world := ecs.NewWorld()
	return &Scheduler{
		world:       world,
		agentMapper: ecs.NewMap2[components.Identity, components.LifeCycle](world),
		agentFilter: ecs.NewFilter2[components.Identity, components.LifeCycle](world),
		rng:         rng,
	}
}

// Spawn adds an agent. During a step the agent is queued and joins the
// population after iteration, so it never acts in the step it was created.
func (s *Scheduler) Spawn(id components.Identity, lc components.LifeCycle) {
	if s.stepping {
		s.births = append(s.births, pendingBirth{identity: id, lifeCycle: lc})
		return
	}
	s.agentMapper.NewEntity(&id, &lc)
	s.count++
}

// Kill queues an agent for removal at the end of the current step.
// Outside a step the agent is removed immediately.
func (s *Scheduler) Kill(e ecs.Entity) {
	if s.stepping {
		s.deaths = append(s.deaths, e)
		return
	}
	if s.world.Alive(e) {
		s.world.RemoveEntity(e)
		s.count--
	}
}

// Step activates every agent alive at step start exactly once, in a uniformly
// shuffled order, then applies buffered deaths followed by buffered births.
func (s *Scheduler) Step(act func(a Agent)) {
	s.Activate(act)
	s.Apply()
}

// Activate runs the activation pass of a step. Population changes stay
// buffered until Apply.
func (s *Scheduler) Activate(act func(a Agent)) {
	// Snapshot (must complete before any callback runs)
	s.order = s.order[:0]
	query := s.agentFilter.Query()
	for query.Next() {
		id, _ := query.Get()
		s.order = append(s.order, activation{entity: query.Entity(), id: id.ID})
	}

	// Entity handles are recycled by the world, so order by agent id
	// before shuffling to keep replay independent of storage layout.
	sort.Slice(s.order, func(i, j int) bool { return s.order[i].id < s.order[j].id })
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})

	s.stepping = true
	for _, a := range s.order {
		id, lc := s.agentMapper.Get(a.entity)
		act(Agent{Entity: a.entity, Identity: id, LifeCycle: lc})
	}
	s.stepping = false
}

// Apply removes agents killed during the last activation pass, then adds
// the agents spawned during it.
func (s *Scheduler) Apply() {
	for _, e := range s.deaths {
		if s.world.Alive(e) {
			s.world.RemoveEntity(e)
			s.count--
		}
	}
	s.deaths = s.deaths[:0]

	for i := range s.births {
		b := &s.births[i]
		s.agentMapper.NewEntity(&b.identity, &b.lifeCycle)
		s.count++
	}
	s.births = s.births[:0]
}

// Len returns the number of live agents.
func (s *Scheduler) Len() int {
	return s.count
}

// Each calls fn for every live agent in storage order. fn must not retain
// the pointers or modify the population.
func (s *Scheduler) Each(fn func(id *components.Identity, lc *components.LifeCycle)) {
	query := s.agentFilter.Query()
	for query.Next() {
		fn(query.Get())
	}
}
