package netsim

import (
	"math"
	"time"
)

// congestionControl evolves the congestion window once per round trip.
// Windows are expressed in packets.
type congestionControl interface {
	Protocol() string
	InitialCwndPkts() float64
	NextCwndPkts(now time.Duration, cwndPkts float64, lostInRound bool, bdpPkts float64) float64
}

const (
	cubicBeta = 0.7
	cubicC    = 0.4

	// Per-round growth cap keeps the model stable at coarse round
	// granularity.
	cubicMaxGrowth = 1.5
)

// cubicControl is a round-granularity rendition of TCP CUBIC: slow start
// to ssthresh, multiplicative decrease on loss, cubic window recovery
// toward the pre-loss maximum.
type cubicControl struct {
	wMax       float64
	ssthresh   float64
	epochStart time.Duration
	k          float64
	inEpoch    bool
}

func newCubicControl() *cubicControl {
	return &cubicControl{ssthresh: math.Inf(1)}
}

func (c *cubicControl) Protocol() string { return "tcpcubic" }

func (c *cubicControl) InitialCwndPkts() float64 { return 10 }

func (c *cubicControl) NextCwndPkts(now time.Duration, cwnd float64, lost bool, _ float64) float64 {
	if lost {
		c.wMax = cwnd
		cwnd = math.Max(2, cwnd*cubicBeta)
		c.ssthresh = cwnd
		c.inEpoch = false
		return cwnd
	}

	if cwnd < c.ssthresh {
		// Slow start doubles the window each round.
		return math.Min(cwnd*2, c.ssthresh)
	}

	if !c.inEpoch {
		c.inEpoch = true
		c.epochStart = now
		c.k = math.Cbrt(c.wMax * (1 - cubicBeta) / cubicC)
	}
	t := (now - c.epochStart).Seconds()
	target := cubicC*math.Pow(t-c.k, 3) + c.wMax
	if target <= cwnd {
		// Plateau region around wMax grows slowly.
		return cwnd + 0.1
	}
	return math.Min(target, cwnd*cubicMaxGrowth)
}
