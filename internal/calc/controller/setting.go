package controller

import "fmt"

// SettingController accepts the three live configuration parameters over
// the serial link: maximum dimension, maximum element value, and the
// per-class quota, in that order, each as digits plus a terminator.
//
// Values are validated as they arrive; any rejection aborts the whole run
// with ErrDimRange and leaves the configuration untouched. All three are
// installed atomically once the last one parses, then a done marker is
// sent and the controller terminates.
type SettingController struct {
	deps Deps

	param   int
	parser  DigitParser
	vals    [3]int
	applied bool
	sent    bool
	errKind ErrKind
	done    bool

	stats Stats
}

// NewSetting creates a setting sub-controller.
func NewSetting(deps Deps) *SettingController {
	return &SettingController{deps: deps}
}

// Reset discards partial parameters.
func (s *SettingController) Reset() {
	s.param = 0
	s.parser.Reset()
	s.vals = [3]int{}
	s.applied = false
	s.sent = false
	s.errKind = ErrNone
	s.done = false
}

// Done reports terminal state.
func (s *SettingController) Done() bool { return s.done }

// Err returns the error kind of the last run.
func (s *SettingController) Err() ErrKind { return s.errKind }

// Stats returns a copy of the accumulated statistics.
func (s *SettingController) Stats() Stats { return s.stats }

// Tick advances parsing, application, or the completion marker by one step.
func (s *SettingController) Tick() error {
	if s.done {
		return nil
	}
	s.stats.Ticks++

	if s.param < 3 {
		s.tickParse()
		return nil
	}

	if !s.applied {
		s.deps.Cfg.MaxDimension = s.vals[0]
		s.deps.Cfg.MaxValue = s.vals[1]
		s.deps.Cfg.ClassQuota = s.vals[2]
		if err := s.deps.Dir.SetQuota(s.vals[2]); err != nil {
			return fmt.Errorf("controller: setting apply: %w", err)
		}
		s.applied = true
		return nil
	}

	if !s.sent {
		if s.deps.Port.Busy() {
			return nil
		}
		if err := s.deps.Port.Send(MarkerDone); err != nil {
			return fmt.Errorf("controller: setting marker: %w", err)
		}
		s.sent = true
		s.stats.Completions++
		s.done = true
	}
	return nil
}

// tickParse consumes one byte toward the current parameter.
func (s *SettingController) tickParse() {
	b, ok := s.deps.Port.Recv()
	if !ok {
		return
	}
	v, complete := s.parser.Feed(b)
	if !complete {
		return
	}
	if !s.valid(s.param, v) {
		s.errKind = ErrDimRange
		s.done = true
		s.stats.Aborts++
		return
	}
	s.vals[s.param] = v
	s.param++
}

// valid checks one parameter against its legal range. The quota may be
// zero (unbounded); the other two may not.
func (s *SettingController) valid(param, v int) bool {
	switch param {
	case 0:
		return v >= 1 && v <= 15
	case 1:
		return v >= 1 && v <= 9
	default:
		return v >= 0
	}
}
