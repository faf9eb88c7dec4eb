package escrow

import "time"

// Clock supplies the trusted time source. Each engine operation reads the
// clock once, so every day-gating decision within one operation sees the
// same instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
