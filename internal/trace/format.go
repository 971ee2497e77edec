package trace

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is the encoding a StreamTracer or a ring dump writes.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // one human-readable line per event
	FormatNDJSON               // one JSON object per line
	FormatChrome               // Chrome trace_event JSON (chrome://tracing, Perfetto)
)

var formatNames = []string{"auto", "text", "ndjson", "chrome"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// ParseFormat converts a format name; "json" is an alias for ndjson.
func ParseFormat(s string) (Format, error) {
	switch s = strings.ToLower(s); s {
	case "":
		return FormatAuto, nil
	case "json":
		return FormatNDJSON, nil
	}
	for i, name := range formatNames {
		if s == name {
			return Format(i), nil
		}
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: %s)", s, strings.Join(formatNames, "|"))
}

// FormatForPath picks a format from an output file name: .ndjson is NDJSON,
// .json is Chrome, anything else is text.
func FormatForPath(path string) Format {
	switch filepath.Ext(path) {
	case ".ndjson":
		return FormatNDJSON
	case ".json":
		return FormatChrome
	}
	return FormatText
}

// FormatEvent encodes ev with a trailing newline, except Chrome entries
// whose separators the stream adds.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatChrome:
		return formatChrome(ev)
	}
	return formatText(ev)
}

type jsonAttrs struct {
	Module string `json:"module,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Entity string `json:"entity,omitempty"`
	Items  int    `json:"items,omitempty"`
	Done   int    `json:"done,omitempty"`
	Total  int    `json:"total,omitempty"`
	Err    string `json:"error,omitempty"`
}

func toJSONAttrs(a Attrs) *jsonAttrs {
	if a.empty() {
		return nil
	}
	j := jsonAttrs(a)
	return &j
}

func formatNDJSON(ev *Event) []byte {
	data, _ := json.Marshal(struct {
		Time     string     `json:"time"`
		Seq      uint64     `json:"seq"`
		Kind     string     `json:"kind"`
		Scope    string     `json:"scope"`
		SpanID   uint64     `json:"span_id,omitempty"`
		ParentID uint64     `json:"parent_id,omitempty"`
		Track    uint64     `json:"track,omitempty"`
		Name     string     `json:"name"`
		Detail   string     `json:"detail,omitempty"`
		Attrs    *jsonAttrs `json:"attrs,omitempty"`
	}{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Track:    ev.Track,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Attrs:    toJSONAttrs(ev.Attrs),
	})
	return append(data, '\n')
}

// formatChrome maps spans to B/E pairs on their track and everything else
// to global instant events.
func formatChrome(ev *Event) []byte {
	c := struct {
		Name  string     `json:"name"`
		Cat   string     `json:"cat"`
		Ph    string     `json:"ph"`
		TS    int64      `json:"ts"`
		PID   int        `json:"pid"`
		TID   uint64     `json:"tid"`
		Scope string     `json:"s,omitempty"`
		Args  *jsonAttrs `json:"args,omitempty"`
	}{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		TS:   ev.Time.UnixMicro(),
		PID:  1,
		TID:  ev.Track,
		Args: toJSONAttrs(ev.Attrs),
	}
	switch ev.Kind {
	case KindBegin:
		c.Ph = "B"
	case KindEnd:
		c.Ph = "E"
	default:
		c.Ph, c.Scope = "i", "g"
	}
	data, _ := json.Marshal(c)
	return data
}

// formatText renders "[seq] <mark> name (detail) {k=v ...}". Child spans are
// indented one step.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%6d] ", ev.Seq)
	if ev.ParentID != 0 {
		sb.WriteString("  ")
	}
	switch ev.Kind {
	case KindBegin:
		sb.WriteString("→ ")
	case KindEnd:
		sb.WriteString("← ")
	case KindProgress:
		sb.WriteString("• ")
	case KindHeartbeat:
		sb.WriteString("♡ ")
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (" + ev.Detail + ")")
	}
	if pairs := textAttrs(ev.Attrs); len(pairs) > 0 {
		sb.WriteString(" {" + strings.Join(pairs, " ") + "}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func textAttrs(a Attrs) []string {
	var out []string
	add := func(k, v string) {
		if v != "" {
			out = append(out, k+"="+v)
		}
	}
	num := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	add("module", a.Module)
	add("stage", a.Stage)
	add("entity", a.Entity)
	add("items", num(a.Items))
	if a.Total > 0 {
		add("progress", fmt.Sprintf("%d/%d", a.Done, a.Total))
	}
	if a.Err != "" {
		add("error", strconv.Quote(a.Err))
	}
	return out
}
