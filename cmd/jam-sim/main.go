// jam-sim: drives pkg/antijam through a synthetic packet-quality stream to
// exercise detection threshold, debounce, and hold-time behavior outside
// of a radio, useful for tuning a detector Config before deploying it.
//
// Examples:
//
//	# 30% bad packets for 500 packets, default config
//	./jam-sim --bad-percent 30 --count 500
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/herlein/glockcore/pkg/antijam"
)

func main() {
	badPercent := flag.Int("bad-percent", 30, "Percentage of packets marked bad (0-100)")
	count := flag.Int("count", 500, "Number of packets to simulate")
	window := flag.Uint32("window", 100, "Window size in packets")
	threshold := flag.Uint8("threshold", 30, "Jam threshold percent")
	consec := flag.Uint32("consecutive", 1, "Consecutive jammy windows required to declare JAMMED")
	hold := flag.Uint32("hold-ms", 0, "JAMMED hold time in milliseconds")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr)

	cfg := antijam.Config{
		WindowSizePackets:       *window,
		WindowDurationMs:        1000,
		WindowMode:              antijam.ByCount,
		JamThresholdPercent:     *threshold,
		MinBadPackets:           5,
		ConsecutiveWindowsToJam: *consec,
		JamStateHoldTimeMs:      *hold,
		MinTimeBetweenRecoMs:    1,
	}

	d, err := antijam.NewDetector(*window, cfg)
	if err != nil {
		logger.Fatal("construct detector", "err", err)
	}

	fires := 0
	d.OnRecommend(func(h antijam.HopSuggestion) {
		fires++
		logger.Info("hop recommended", "confidence", h.Confidence, "suggest_group_switch", h.SuggestGroupSwitch)
	})

	windowSize := int(*window)
	var now uint32
	for i := 0; i < *count; i++ {
		bad := i%100 < *badPercent
		report := d.RegisterPacket(!bad, now)
		if windowSize > 0 && (i+1)%windowSize == 0 {
			logger.Info("window boundary", "packet", i, "state", report.State, "score", report.Score)
		}
		now++
	}

	logger.Info("simulation complete", "final_state", d.LastReport().State, "callback_fires", fires)
}
