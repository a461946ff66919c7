package telemetry

import "github.com/pthm-cable/dogpop/components"

// Census is a head count of the live population at one instant.
type Census struct {
	Females int
	Males   int
	ByStage [components.StageCount]int
}

// Add counts one live agent.
func (c *Census) Add(sex components.Sex, stage components.Stage) {
	if sex == components.Female {
		c.Females++
	} else {
		c.Males++
	}
	if int(stage) < len(c.ByStage) {
		c.ByStage[stage]++
	}
}

// Total returns the number of agents counted.
func (c Census) Total() int {
	return c.Females + c.Males
}

// Collector is the time-indexed ledger of aggregate metrics.
// Event counters accumulate during a month's step and are attached to the
// next recorded row, so row N carries the births and deaths that produced it.
type Collector struct {
	rows []MonthStats

	// Event counters since the last Record
	births  int
	deaths  int
	litters int
}

// NewCollector creates an empty collector sized for the given horizon.
func NewCollector(horizon int) *Collector {
	if horizon < 0 {
		horizon = 0
	}
	return &Collector{rows: make([]MonthStats, 0, horizon)}
}

// RecordBirth records one offspring.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordLitter records one reproduction event.
func (c *Collector) RecordLitter() {
	c.litters++
}

// RecordDeath records one death.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordEvent routes a lifecycle event to the matching counter.
func (c *Collector) RecordEvent(ev Event) {
	switch ev.Type {
	case EventBirth:
		c.RecordBirth()
	case EventDeath:
		c.RecordDeath()
	case EventLitter:
		c.RecordLitter()
	}
}

// Record appends a row for the given month and resets the event counters.
// Rows are append-only.
func (c *Collector) Record(month int, census Census) MonthStats {
	row := c.Peek(month, census)
	c.rows = append(c.rows, row)

	c.births = 0
	c.deaths = 0
	c.litters = 0

	return row
}

// Peek builds the row Record would produce without appending it or
// resetting the counters.
func (c *Collector) Peek(month int, census Census) MonthStats {
	return MonthStats{
		Month:        month,
		Total:        census.Total(),
		Females:      census.Females,
		Males:        census.Males,
		Newborn:      census.ByStage[components.StageNewborn],
		EarlyAge:     census.ByStage[components.StageEarlyAge],
		Reproductive: census.ByStage[components.StageReproductive],
		Spayed:       census.ByStage[components.StageSpayed],
		Births:       c.births,
		Deaths:       c.deaths,
		Litters:      c.litters,
	}
}

// Len returns the number of recorded rows.
func (c *Collector) Len() int {
	return len(c.rows)
}

// Series returns a read-only copy of everything recorded so far.
func (c *Collector) Series() Series {
	rows := make([]MonthStats, len(c.rows))
	copy(rows, c.rows)
	return Series{rows: rows}
}
