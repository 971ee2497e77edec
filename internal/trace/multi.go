package trace

import "go.uber.org/multierr"

type fanout struct {
	sinks []Tracer
}

// Fanout sends each event to every sink. Its level is the most verbose
// sink's; each sink still filters at its own level.
func Fanout(sinks ...Tracer) Tracer {
	return &fanout{sinks: sinks}
}

func (f *fanout) Emit(ev *Event) {
	for _, s := range f.sinks {
		// Sinks stamp Seq, so each gets its own copy.
		cp := *ev
		s.Emit(&cp)
	}
}

func (f *fanout) Level() Level {
	var l Level
	for _, s := range f.sinks {
		l = max(l, s.Level())
	}
	return l
}

func (f *fanout) Close() error {
	var err error
	for _, s := range f.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
