package scheduler

// Callback is invoked once per elapsed interval. Returning an error aborts the
// gated operation.
type Callback func() error

// Schedule is the persisted scheduler record.
type Schedule struct {
	LastUpdate uint64
	Interval   uint64
	Enabled    bool
	Registered bool
}

// Clone returns a copy of the schedule.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Elapsed returns the number of whole intervals between LastUpdate and now.
func (s *Schedule) Elapsed(now uint64) uint64 {
	if s == nil || s.Interval == 0 || now <= s.LastUpdate {
		return 0
	}
	return (now - s.LastUpdate) / s.Interval
}
