package paxossim

import (
	"github.com/go-kit/kit/log"
	"math/rand"
)

// CheckWarn logs e as a warning and reports whether it was non-nil. Kept
// from the teacher's utils.go (originally used to surface disk-write
// errors); here it's used by the driver around scenario loading.
func CheckWarn(e error, logger log.Logger) bool {
	if e != nil {
		logger.Log("msg", "Warning", "error", e)
		return true
	}
	return false
}

// TickDelay draws the uniform {EventDelayMin..EventDelayMax} offset used
// to resolve an event whose tick is unset (spec §4.1 step 2, §9). It
// replaces the teacher's BinaryBackoffEngine (a real-time retry backoff
// that has no place in a logical-tick simulator) with the simpler
// single-draw policy the spec actually calls for, built on the same
// seeded *rand.Rand the teacher threads through TLSCapnpHandshaker and
// StatsPublisher for its tie-break/jitter draws.
type TickDelay struct {
	rng *rand.Rand
}

func NewTickDelay(rng *rand.Rand) *TickDelay {
	return &TickDelay{rng: rng}
}

func (td *TickDelay) Next() int {
	return EventDelayMin + td.rng.Intn(EventDelayMax-EventDelayMin+1)
}
