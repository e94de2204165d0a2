// Package workload reads and writes external event traces and generates
// synthetic ones from a social dataset.
//
// A trace has one event per line, fields separated by tabs or spaces:
//
//	<time> CONN <a> <b> up|down
//	<time> C <messageId> <from> <to> <size>
//
// Consumers expect non-decreasing timestamps; the simulator orders events
// itself, so files that are not sorted are still accepted.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/inference-sim/dtn-sim/sim"
)

const (
	tokenConnection = "CONN"
	tokenCreate     = "C"
	tokenUp         = "up"
	tokenDown       = "down"
)

// ReadEvents parses a trace. It stops at the first malformed line and reports
// its line number. Blank lines and lines starting with '#' are skipped.
func ReadEvents(r io.Reader) ([]sim.Event, error) {
	var events []sim.Event
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseEvent(strings.Fields(line))
		if err != nil {
			return nil, oops.Wrapf(err, "line %d", lineNo)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, oops.Wrapf(err, "reading events")
	}
	return events, nil
}

// LoadEvents reads the trace file at path.
func LoadEvents(path string) ([]sim.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.Wrapf(err, "opening events")
	}
	defer f.Close()
	events, err := ReadEvents(f)
	if err != nil {
		return nil, oops.Wrapf(err, "%s", path)
	}
	return events, nil
}

func parseEvent(fields []string) (sim.Event, error) {
	if len(fields) < 2 {
		return nil, oops.Errorf("expected at least 2 fields, got %d", len(fields))
	}
	t, err := parseTime(fields[0])
	if err != nil {
		return nil, err
	}
	switch fields[1] {
	case tokenConnection:
		if len(fields) != 5 {
			return nil, oops.Errorf("CONN: expected 5 fields, got %d", len(fields))
		}
		a, err := parseNode(fields[2])
		if err != nil {
			return nil, err
		}
		b, err := parseNode(fields[3])
		if err != nil {
			return nil, err
		}
		var up bool
		switch fields[4] {
		case tokenUp:
			up = true
		case tokenDown:
			up = false
		default:
			return nil, oops.Errorf("CONN: state must be up or down, got %q", fields[4])
		}
		return &sim.ConnectionEvent{Time: t, A: a, B: b, Up: up}, nil
	case tokenCreate:
		if len(fields) != 6 {
			return nil, oops.Errorf("C: expected 6 fields, got %d", len(fields))
		}
		from, err := parseNode(fields[3])
		if err != nil {
			return nil, err
		}
		to, err := parseNode(fields[4])
		if err != nil {
			return nil, err
		}
		size, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil || size < 0 {
			return nil, oops.Errorf("C: invalid size %q", fields[5])
		}
		return &sim.CreateEvent{Time: t, MessageID: fields[2], From: from, To: to, Size: size}, nil
	default:
		return nil, oops.Errorf("unknown event type %q", fields[1])
	}
}

// parseTime accepts integer or decimal tick values; decimals are truncated.
func parseTime(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, oops.Errorf("negative time %d", v)
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, oops.Errorf("invalid time %q", s)
	}
	return int64(f), nil
}

func parseNode(s string) (sim.NodeID, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, oops.Errorf("invalid host id %q", s)
	}
	return sim.NodeID(v), nil
}

// WriteEvents writes events in the trace format, in the given order.
func WriteEvents(w io.Writer, events []sim.Event) error {
	bw := bufio.NewWriter(w)
	for _, ev := range events {
		var err error
		switch e := ev.(type) {
		case *sim.ConnectionEvent:
			state := tokenDown
			if e.Up {
				state = tokenUp
			}
			_, err = fmt.Fprintf(bw, "%d\t\t%s\t%d\t%d\t%s\n", e.Time, tokenConnection, e.A, e.B, state)
		case *sim.CreateEvent:
			_, err = fmt.Fprintf(bw, "%d\t\t%s\t%s\t%d\t%d\t%d\n", e.Time, tokenCreate, e.MessageID, e.From, e.To, e.Size)
		default:
			err = oops.Errorf("unsupported event type %T", ev)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SortEvents orders events by timestamp, keeping the relative order of
// events that share one.
func SortEvents(events []sim.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp() < events[j].Timestamp()
	})
}

// CheckMonotonic returns an error naming the first event whose timestamp is
// lower than its predecessor's.
func CheckMonotonic(events []sim.Event) error {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp() < events[i-1].Timestamp() {
			return oops.Errorf("event %d at %d precedes previous event at %d", i, events[i].Timestamp(), events[i-1].Timestamp())
		}
	}
	return nil
}
