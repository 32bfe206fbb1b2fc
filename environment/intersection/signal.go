package intersection

// signal is a two-stage traffic light: a green phase is followed by
// yellow before the next green begins
type signal struct {
	greenPhases int
	minGreen    int
	yellowTime  int
	deltaTime   int

	greenPhase      int
	isYellow        bool
	sinceLastChange int
	nextActionTime  int
	fixedGreen      int
	fixed           bool
	yellowNextPhase int
}

func newSignal(c *Config) *signal {
	s := &signal{
		greenPhases: c.GreenPhases,
		minGreen:    c.MinGreen,
		yellowTime:  c.YellowTime,
		deltaTime:   c.DeltaTime,
		fixedGreen:  c.FixedGreen,
		fixed:       c.Fixed,
	}
	if c.MaxGreen > 0 && s.fixedGreen > c.MaxGreen {
		s.fixedGreen = c.MaxGreen
	}
	if s.fixedGreen <= 0 {
		s.fixedGreen = 1
	}
	return s
}

func (s *signal) reset() {
	s.greenPhase = 0
	s.isYellow = false
	s.sinceLastChange = 0
	s.nextActionTime = 0
}

// tick advances the light by one second
func (s *signal) tick() {
	s.sinceLastChange++
	if s.isYellow && s.sinceLastChange >= s.yellowTime {
		s.isYellow = false
		s.greenPhase = s.yellowNextPhase
		s.sinceLastChange = 0
		return
	}
	if s.fixed && !s.isYellow && s.sinceLastChange >= s.fixedGreen {
		s.startYellow((s.greenPhase + 1) % s.greenPhases)
	}
}

func (s *signal) startYellow(next int) {
	if s.yellowTime <= 0 {
		s.greenPhase = next
		s.sinceLastChange = 0
		return
	}
	s.isYellow = true
	s.yellowNextPhase = next
	s.sinceLastChange = 0
}

// setNextPhase applies an agent decision at simulation time now. Changes
// are ignored until the current green has been held for the minimum time.
func (s *signal) setNextPhase(phase, now int) {
	s.nextActionTime = now + s.deltaTime
	if s.isYellow || phase == s.greenPhase || s.sinceLastChange < s.minGreen {
		return
	}
	s.startYellow(phase)
}

func (s *signal) timeToAct(now int) bool {
	return now >= s.nextActionTime
}

// green reports whether approaches of phase may discharge
func (s *signal) green(phase int) bool {
	return !s.isYellow && s.greenPhase == phase
}

// current green (or the green being left while yellow) and whether the
// minimum green has elapsed
func (s *signal) observation() (int, float64) {
	minGreen := 0.0
	if !s.isYellow && s.sinceLastChange >= s.minGreen {
		minGreen = 1
	}
	return s.greenPhase, minGreen
}
