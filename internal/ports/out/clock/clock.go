package clock

import "time"

// Clock stamps member createdAt/updatedAt.
// Tests substitute a manual clock to get deterministic timestamps.
type Clock interface {
	Now() time.Time
}
