package script

import "time"

// combatResBaseInterval is the recovery budget shared by the whole group:
// one extra charge roughly every 90 minutes, split by occupant count.
const combatResBaseInterval = 90 * time.Minute

// CombatResurrection is the per-encounter battle resurrection economy:
// a charge pool that recovers on a timer while an encounter runs.
//
// Driven by the instance tick (Update with elapsed milliseconds); no
// internal timers or goroutines.
type CombatResurrection struct {
	charges      int
	interval     int64 // ms between recovered charges
	timer        int64 // ms until the next charge
	timerStarted bool
}

// Seed computes the recovery interval from the occupant count and grants
// the initial charge. Called when an encounter engages.
func (c *CombatResurrection) Seed(occupants int) {
	if occupants < 1 {
		occupants = 1
	}
	c.interval = combatResBaseInterval.Milliseconds() / int64(occupants)
	c.AddCharge()
}

// AddCharge grants a charge and restarts the recovery timer.
func (c *CombatResurrection) AddCharge() {
	c.charges++
	c.timer = c.interval
	c.timerStarted = true
}

// UseCharge consumes a charge. Returns false if none are available.
func (c *CombatResurrection) UseCharge() bool {
	if c.charges <= 0 {
		return false
	}
	c.charges--
	return true
}

// Charges returns the available charge count.
func (c *CombatResurrection) Charges() int { return c.charges }

// Interval returns the recovery interval in milliseconds.
func (c *CombatResurrection) Interval() int64 { return c.interval }

// Update advances the recovery timer by elapsed milliseconds, granting a
// charge when it runs out. Does nothing unless the timer was started.
func (c *CombatResurrection) Update(elapsedMs int64) {
	if !c.timerStarted {
		return
	}
	c.timer -= elapsedMs
	if c.timer <= 0 {
		c.AddCharge()
	}
}

// Reset clears charges and stops the recovery timer.
func (c *CombatResurrection) Reset() {
	c.charges = 0
	c.timer = 0
	c.timerStarted = false
}
