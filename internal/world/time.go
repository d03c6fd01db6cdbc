// World clock advancement and the per-tick need model.
package world

const (
	// DefaultDayStartHour begins the half-hour wake window [start, start+0.5).
	DefaultDayStartHour = 6.0

	// DefaultDayEndHour is the evening boundary past which agents go to
	// sleep. The window wraps: hour ≥ end or hour < start.
	DefaultDayEndHour = 22.0

	// wakeWindow is the width of the morning wake window.
	wakeWindow = 0.5

	// Need drift rates per in-world hour.
	hungerRisePerHour  = 0.5
	energyDrainPerHour = 0.3
	energySleepPerHour = 2.0
	socialRisePerHour  = 0.5
	socialDrainPerHour = 0.2
)

// AdvanceTime moves the clock forward by the given number of in-world
// minutes: increments the tick, adds to the hour, rolls the day at 24.0,
// and recomputes the season. Returns true when the day rolled over.
func (s *Store) AdvanceTime(minutes float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock.CurrentTick++
	s.clock.CurrentHour += minutes / 60.0

	rolled := false
	for s.clock.CurrentHour >= 24.0 {
		s.clock.CurrentHour -= 24.0
		s.clock.CurrentDay++
		rolled = true
	}
	s.clock.Season = SeasonForDay(s.clock.CurrentDay)
	return rolled
}

// SetWeather updates the current weather description.
func (s *Store) SetWeather(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Weather = desc
}

// UpdateNeeds applies the need drift model to one agent over a fractional
// hour dt. Hunger always rises; energy recovers in sleep and drains awake;
// social rises when sharing a location and drains alone.
func (s *Store) UpdateNeeds(id AgentID, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return
	}

	a.Needs.Hunger = ClampNeed(a.Needs.Hunger + hungerRisePerHour*dt)

	if a.State == StateSleeping {
		a.Needs.Energy = ClampNeed(a.Needs.Energy + energySleepPerHour*dt)
	} else {
		a.Needs.Energy = ClampNeed(a.Needs.Energy - energyDrainPerHour*dt)
	}

	if s.occupancyLocked(a.LocationID) > 1 {
		a.Needs.Social = ClampNeed(a.Needs.Social + socialRisePerHour*dt)
	} else {
		a.Needs.Social = ClampNeed(a.Needs.Social - socialDrainPerHour*dt)
	}
}

// WakeSleepingAgents wakes every sleeping agent when the clock is inside
// the morning wake window. A no-op at any other hour; idempotent within a
// tick. Returns the number of agents woken.
func (s *Store) WakeSleepingAgents() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock.CurrentHour < s.dayStartHour || s.clock.CurrentHour >= s.dayStartHour+wakeWindow {
		return 0
	}
	woken := 0
	for _, a := range s.agents {
		if a.State == StateSleeping {
			a.State = StateIdle
			woken++
		}
	}
	return woken
}

// PutAgentsToSleep puts every awake agent to sleep during night hours
// (hour ≥ 22.0 or hour < 6.0). Idempotent within a tick. Returns the number
// of agents put to sleep.
func (s *Store) PutAgentsToSleep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock.CurrentHour < s.dayEndHour && s.clock.CurrentHour >= s.dayStartHour {
		return 0
	}
	slept := 0
	for _, a := range s.agents {
		if a.State != StateSleeping {
			a.State = StateSleeping
			slept++
		}
	}
	return slept
}
