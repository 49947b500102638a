package netsim

import (
	"math"
	"time"
)

const (
	bbrStartupGain = 2.885
	bbrMinCwndPkts = 4
)

// Steady-state pacing cycle: probe up, drain, then cruise at the
// estimated bandwidth-delay product.
var bbrCycleGains = [8]float64{1.25, 0.75, 1, 1, 1, 1, 1, 1}

type bbrPhase int

const (
	bbrStartup bbrPhase = iota
	bbrDrain
	bbrProbeBW
)

// bbrControl is a round-granularity rendition of BBR: exponential startup
// until the window covers the startup-gain multiple of the path BDP, a
// drain back to the BDP, then the cyclic bandwidth probe. Loss does not
// collapse the window.
type bbrControl struct {
	phase    bbrPhase
	cycleIdx int
}

func newBBRControl() *bbrControl {
	return &bbrControl{}
}

func (b *bbrControl) Protocol() string { return "quicbbr" }

func (b *bbrControl) InitialCwndPkts() float64 { return 10 }

func (b *bbrControl) NextCwndPkts(_ time.Duration, cwnd float64, _ bool, bdp float64) float64 {
	if bdp < bbrMinCwndPkts {
		bdp = bbrMinCwndPkts
	}
	switch b.phase {
	case bbrStartup:
		if cwnd >= bdp*bbrStartupGain {
			b.phase = bbrDrain
			return cwnd
		}
		return cwnd * 2
	case bbrDrain:
		next := cwnd * 0.75
		if next <= bdp {
			b.phase = bbrProbeBW
			next = bdp
		}
		return math.Max(next, bbrMinCwndPkts)
	default:
		gain := bbrCycleGains[b.cycleIdx]
		b.cycleIdx = (b.cycleIdx + 1) % len(bbrCycleGains)
		return math.Max(bdp*gain, bbrMinCwndPkts)
	}
}
