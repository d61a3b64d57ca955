// fhssd: runs the FHSS coordination core (sequence generation, frequency
// mapping, the Glock cross-radio barrier, the anti-jam detector, and the
// mode-switch policy layer) as a standalone process, driven by a YAML
// config and simulated or real packet traffic.
//
// Examples:
//
//	# Simulate packet traffic from a YAML config, logging every packet
//	./fhssd -c config.yaml -v
//
//	# Drive a real YardStick One-class dongle instead of simulating
//	./fhssd -c config.yaml --usb
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/gousb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/config"
	"github.com/herlein/glockcore/pkg/driver"
	"github.com/herlein/glockcore/pkg/freqmap"
	"github.com/herlein/glockcore/pkg/glock"
	"github.com/herlein/glockcore/pkg/link"
	"github.com/herlein/glockcore/pkg/metrics"
	"github.com/herlein/glockcore/pkg/modeswitch"
	"github.com/herlein/glockcore/pkg/sequence"
	"github.com/herlein/glockcore/pkg/status"
)

func main() {
	configPath := flag.StringP("config", "c", "", "Configuration file path (required)")
	useUSB := flag.Bool("usb", false, "Drive a real USB radio instead of simulating")
	verbose := flag.BoolP("verbose", "v", false, "Verbose logging")
	dwell := flag.Duration("dwell", 50*time.Millisecond, "Simulated packet interval")
	metricsAddr := flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (disabled if empty)")
	statusAddr := flag.String("status-addr", "", "Address to serve the live websocket status feed on (disabled if empty)")
	mqttBroker := flag.String("mqtt-broker", "", "MQTT broker URL to publish telemetry to (disabled if empty)")
	mqttTopic := flag.String("mqtt-topic", "glockcore/status", "MQTT topic for published telemetry")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -c <config.yaml> [options]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *configPath == "" {
		logger.Fatal("config path (-c) is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	table, err := sequence.Generate(cfg.Sequence.Seed, cfg.Sequence.N, cfg.Sequence.Sync)
	if err != nil {
		logger.Fatal("generate sequence", "err", err)
	}

	fm, err := cfg.BuildFreqMap()
	if err != nil {
		logger.Fatal("build frequency map", "err", err)
	}

	barrier := glock.New(table, fm)

	maxCapacity := cfg.AntiJam.WindowSizePackets
	if maxCapacity == 0 {
		maxCapacity = 256
	}
	detector, err := antijam.NewDetector(maxCapacity, cfg.AntiJam)
	if err != nil {
		logger.Fatal("construct anti-jam detector", "err", err)
	}

	sw := modeswitch.New(cfg.Switch.DebounceMs)
	sw.SetControllerOnly(cfg.Switch.ControllerOnly)

	l := link.New(detector, sw, barrier, logger)

	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)

	var publisher *status.Publisher
	if *statusAddr != "" || *mqttBroker != "" {
		publisher = status.NewPublisher()
		if *mqttBroker != "" {
			opts := mqtt.NewClientOptions().AddBroker(*mqttBroker).SetClientID("fhssd")
			client := mqtt.NewClient(opts)
			if token := client.Connect(); token.Wait() && token.Error() != nil {
				logger.Fatal("connect mqtt broker", "err", token.Error())
			}
			publisher.AttachMQTT(client, *mqttTopic)
			logger.Info("publishing telemetry", "broker", *mqttBroker, "topic", *mqttTopic)
		}
	}

	l.OnRecommend(collectors.ObserveRecommendation)
	l.OnHop(collectors.ObserveHop)
	l.OnSwitchChange(func(c modeswitch.Change) {
		collectors.ObserveSwitchChange(c)
		if publisher != nil {
			if err := publisher.Publish(status.SwitchEvent(c)); err != nil {
				logger.Error("publish switch event", "err", err)
			}
		}
	})

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
		logger.Info("serving metrics", "addr", *metricsAddr)
	}

	if *statusAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			if err := publisher.ServeWS(w, r); err != nil {
				logger.Error("websocket client", "err", err)
			}
		})
		go func() {
			if err := http.ListenAndServe(*statusAddr, mux); err != nil {
				logger.Error("status server stopped", "err", err)
			}
		}()
		logger.Info("serving live status", "addr", *statusAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sw.SetEnabled(true, nowMs())

	if *useUSB {
		ctx := gousb.NewContext()
		defer ctx.Close()
		d, err := driver.Open(ctx)
		if err != nil {
			logger.Fatal("open USB radio", "err", err)
		}
		defer d.Close()
		logger.Info("opened radio", "serial", d.Serial)

		wireHardwareHop(l, d, fm, table, logger)

		logger.Info("fhssd running", "config", *configPath, "mode", "usb")
		runHardware(l, d, *dwell, sigCh, logger, collectors, publisher, sw)
		return
	}

	logger.Info("fhssd running", "config", *configPath, "mode", "simulated")
	runSimulation(l, *dwell, sigCh, logger, collectors, publisher, sw)
}

func nowMs() uint32 {
	return uint32(time.Now().UnixMilli())
}

// wireHardwareHop registers an OnHop observer that programs the physical
// radio to the frequency the barrier just computed for Radio1, then reads
// back the radio's frequency-offset estimate and feeds it into the
// frequency map as that radio's tracked correction (spec §4.B).
func wireHardwareHop(l *link.Link, d driver.RadioDriver, fm *freqmap.Map, table sequence.Table, logger *log.Logger) {
	l.OnHop(func() {
		channel := table[l.Barrier.SyncedIndex()]
		freq := fm.Frequency(freqmap.Radio1, false, channel)
		if err := d.SetFrequency(freq); err != nil {
			logger.Error("program radio frequency", "err", err)
			return
		}
		corr, err := d.Correction()
		if err != nil {
			logger.Error("read radio correction", "err", err)
			return
		}
		fm.SetCorrection(freqmap.Radio1, corr)
		logger.Debug("radio hopped", "channel", channel, "freq_hz", freq, "correction_hz", corr)
	})
}

// processReport routes one anti-jam report through metrics and telemetry,
// shared by both the simulated and hardware packet loops.
func processReport(report antijam.Report, prevState antijam.State, collectors *metrics.Collectors, publisher *status.Publisher, sw *modeswitch.Switch, logger *log.Logger) {
	collectors.ObserveReport(prevState, report)
	logger.Debug("packet registered", "state", report.State, "score", report.Score)
	if publisher != nil {
		ev := status.JamEvent(report, sw.Enabled(), sw.GetMode())
		if err := publisher.Publish(ev); err != nil {
			logger.Error("publish jam event", "err", err)
		}
	}
}

// runSimulation feeds synthetic packet outcomes into the link's detector
// until interrupted, standing in for real radio IRQ delivery.
func runSimulation(l *link.Link, dwell time.Duration, stop <-chan os.Signal, logger *log.Logger, collectors *metrics.Collectors, publisher *status.Publisher, sw *modeswitch.Switch) {
	ticker := time.NewTicker(dwell)
	defer ticker.Stop()

	var i int
	prevState := l.Detector.LastReport().State
	for {
		select {
		case <-stop:
			logger.Info("shutting down")
			return
		case <-ticker.C:
			good := i%10 != 0
			report := l.Detector.RegisterPacket(good, nowMs())
			processReport(report, prevState, collectors, publisher, sw, logger)
			prevState = report.State
			i++
		}
	}
}

// runHardware polls a real RadioDriver's last-packet CRC flag as the
// packet-good source, in place of runSimulation's synthetic outcomes.
func runHardware(l *link.Link, d driver.RadioDriver, dwell time.Duration, stop <-chan os.Signal, logger *log.Logger, collectors *metrics.Collectors, publisher *status.Publisher, sw *modeswitch.Switch) {
	ticker := time.NewTicker(dwell)
	defer ticker.Stop()

	prevState := l.Detector.LastReport().State
	for {
		select {
		case <-stop:
			logger.Info("shutting down")
			return
		case <-ticker.C:
			good, err := d.LastPacketCRCOK()
			if err != nil {
				logger.Error("read packet CRC status", "err", err)
				continue
			}
			report := l.Detector.RegisterPacket(good, nowMs())
			processReport(report, prevState, collectors, publisher, sw, logger)
			prevState = report.State
		}
	}
}
