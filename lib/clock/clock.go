package clock

import (
	"time"
)

const layout = "2006-01-02T15:04:05Z"

func Now() string {
	return time.Now().UTC().Format(layout)
}

// Clock supplies the current instant; tests swap it for a fixed one.
type Clock func() time.Time

func System() time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
