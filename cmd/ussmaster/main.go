// cmd/ussmaster/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/logging"
	"github.com/tamzrod/uss-master/internal/poller"
	"github.com/tamzrod/uss-master/internal/status"
	"github.com/tamzrod/uss-master/internal/transport"
	"github.com/tamzrod/uss-master/internal/writer"
	wmqtt "github.com/tamzrod/uss-master/internal/writer/mqtt"
)

type paramEvent struct {
	slave int
	res   poller.ParamResult
}

func main() {
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	dumpConfig := flag.Bool("dump-config", false, "print the effective config and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ussmaster [-list-ports] [-dump-config] <config.yaml>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listPorts {
		ports, err := transport.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list ports failed: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if *dumpConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logging.Bus(logger, cfg.Bus.ID, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Bus + commissioning
	// --------------------

	p, closeBus, err := poller.Build(cfg, logging.Bus(logger, cfg.Bus.ID, "uss"))
	if err != nil {
		log.Fatal("bus build failed", zap.Error(err))
	}
	defer closeBus()

	setups, err := poller.Setups(cfg)
	if err != nil {
		log.Fatal("commissioning plan failed", zap.Error(err))
	}
	if err := p.Commission(setups); err != nil {
		// Slaves may come up later; cyclic operation still starts.
		log.Warn("commissioning incomplete", zap.Error(err))
	}

	// --------------------
	// Writers
	// --------------------

	var writers writer.Fanout

	mirror, closeMirror, err := writer.BuildMirror(cfg)
	if err != nil {
		log.Fatal("mirror connect failed", zap.Error(err))
	}
	defer closeMirror()
	if mirror != nil {
		writers = append(writers, mirror)
	}

	params := make(chan paramEvent, 8)

	if cfg.MQTT != nil {
		slaves := make([]wmqtt.Slave, 0, len(cfg.Slaves))
		for _, s := range cfg.Slaves {
			slaves = append(slaves, wmqtt.Slave{Name: s.Name, Address: s.Address})
		}

		mc, err := wmqtt.Connect(*cfg.MQTT, cfg.Bus.ID, slaves, p, logging.Bus(logger, cfg.Bus.ID, "mqtt"))
		if err != nil {
			log.Fatal("mqtt connect failed", zap.Error(err))
		}
		defer mc.Close()

		mc.SetParamHook(func(slave int, res poller.ParamResult) {
			select {
			case params <- paramEvent{slave, res}:
			case <-ctx.Done():
			}
		})
		writers = append(writers, mc)
	}

	// --------------------
	// Scan loop + orchestrator
	// --------------------

	out := make(chan poller.ScanResult)
	go p.Run(ctx, out)

	orchestrate(ctx, log, out, params, writers,
		status.NewTracker(len(cfg.Slaves), time.Duration(cfg.Bus.StaleAfterMs)*time.Millisecond))

	log.Info("shutting down")
}

// orchestrate owns the tracker and the writers: snapshots change on scan
// results, parameter results and the 1 Hz tick, and are written only on
// change.
func orchestrate(
	ctx context.Context,
	log *zap.Logger,
	out <-chan poller.ScanResult,
	params <-chan paramEvent,
	w writer.StatusWriter,
	tracker *status.Tracker,
) {
	deliver := func(slave int, snap status.Snapshot) {
		if err := w.WriteStatus(slave, snap); err != nil {
			log.Warn("status write failed", zap.Int("slave", slave), zap.Error(err))
		}
	}

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert).
	for slave := 0; slave < tracker.Len(); slave++ {
		deliver(slave, tracker.Snapshot(slave))
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-out:
			snap, changed := tracker.Observe(res.Slave, res.At, observation(res))
			if changed {
				deliver(res.Slave, snap)
			}

		case ev := <-params:
			if snap, changed := tracker.ObserveParam(ev.slave, int(ev.res.Outcome)); changed {
				deliver(ev.slave, snap)
			}

		case now := <-secTicker.C:
			for _, slave := range tracker.Tick(now) {
				deliver(slave, tracker.Snapshot(slave))
			}
		}
	}
}

func observation(res poller.ScanResult) status.Observation {
	return status.Observation{
		Answered:    res.OK(),
		WriteFailed: res.Err != nil,
		StatusWord:  res.StatusWord,
		ActualValue: res.ActualValue,
		ControlWord: res.ControlWord,
		Setpoint:    res.Setpoint,
	}
}
