package sim

import (
	"math/rand"
	"sort"
	"strings"
)

// QueueMode selects the order in which buffered messages are offered.
type QueueMode string

const (
	// QueueModeFIFO offers the oldest buffered copy first (receive time
	// ascending, ties broken by idLess, so "M2" comes before "M10").
	QueueModeFIFO QueueMode = "fifo"
	// QueueModeRandom offers messages in a seeded random order.
	QueueModeRandom QueueMode = "random"
)

// validQueueModes maps accepted queue mode strings. Empty defaults to fifo.
var validQueueModes = map[QueueMode]bool{
	"":              true,
	QueueModeFIFO:   true,
	QueueModeRandom: true,
}

// IsValidQueueMode returns true if name is a recognized queue mode.
func IsValidQueueMode(name string) bool {
	return validQueueModes[QueueMode(name)]
}

// messageLess is the fifo ordering.
func messageLess(a, b *Message) bool {
	if a.ReceiveTime != b.ReceiveTime {
		return a.ReceiveTime < b.ReceiveTime
	}
	return idLess(a.ID, b.ID)
}

// idLess orders message ids that share a prefix by their numeric suffix
// ("M2" < "M10"). Any other pair compares as plain strings.
func idLess(a, b string) bool {
	pa, na := splitNumericSuffix(a)
	pb, nb := splitNumericSuffix(b)
	if pa != pb || na == "" || nb == "" {
		return a < b
	}
	ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
	if len(ta) != len(tb) {
		return len(ta) < len(tb)
	}
	if ta != tb {
		return ta < tb
	}
	return a < b
}

// splitNumericSuffix splits id into its prefix and trailing decimal digits.
func splitNumericSuffix(id string) (prefix, digits string) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	return id[:i], id[i:]
}

// SortMessages orders msgs in place according to mode.
func SortMessages(msgs []*Message, mode QueueMode, rng *rand.Rand) {
	if mode == QueueModeRandom {
		// Sort first so the shuffle result only depends on the rng state.
		sort.SliceStable(msgs, func(i, j int) bool { return messageLess(msgs[i], msgs[j]) })
		rng.Shuffle(len(msgs), func(i, j int) { msgs[i], msgs[j] = msgs[j], msgs[i] })
		return
	}
	sort.SliceStable(msgs, func(i, j int) bool { return messageLess(msgs[i], msgs[j]) })
}

// candidate is a (message, connection) pair considered by a routing tier.
type candidate struct {
	msg *Message
	con *Connection
}

// sortCandidates orders candidates by their message according to mode.
// The sort is stable so pairs for the same message keep connection order.
func sortCandidates(cands []candidate, mode QueueMode, rng *rand.Rand) {
	if mode == QueueModeRandom {
		sort.SliceStable(cands, func(i, j int) bool { return messageLess(cands[i].msg, cands[j].msg) })
		rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		return
	}
	sort.SliceStable(cands, func(i, j int) bool { return messageLess(cands[i].msg, cands[j].msg) })
}
