package trace

import (
	"fmt"
	"strings"
)

// Level controls which events reach a sink.
type Level uint8

const (
	LevelOff    Level = iota // nothing
	LevelError               // only the ends of failed spans
	LevelPhase               // run, module and stage spans
	LevelDetail              // adds per-function spans
	LevelDebug               // adds stage progress events
)

var levelNames = []string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames, "|"))
}

// Admits reports whether a sink at level l records ev. Heartbeats pass at
// every level but off.
func (l Level) Admits(ev *Event) bool {
	switch {
	case l == LevelOff:
		return false
	case ev.Kind == KindHeartbeat:
		return true
	case l == LevelError:
		return ev.Kind == KindEnd && ev.Attrs.Err != ""
	case ev.Kind == KindProgress:
		return l >= LevelDebug
	case ev.Scope == ScopeEntity:
		return l >= LevelDetail
	}
	return true
}
