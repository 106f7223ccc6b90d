package clock

import "time"

// System is the production clock: wall time in UTC.
type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }
