// Command vibrascoped runs the diagnostic engine against a frame source,
// logs each session to CSV, optionally streams results over MQTT, and on
// shutdown bundles the session into a zip report and uploads it to a
// collection node.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/et-diagnostics/vibrascope/internal/audio"
	"github.com/et-diagnostics/vibrascope/internal/calstore"
	"github.com/et-diagnostics/vibrascope/internal/config"
	"github.com/et-diagnostics/vibrascope/internal/eco"
	"github.com/et-diagnostics/vibrascope/internal/engine"
	"github.com/et-diagnostics/vibrascope/internal/export"
	"github.com/et-diagnostics/vibrascope/internal/report"
	"github.com/et-diagnostics/vibrascope/internal/simulate"
	"github.com/et-diagnostics/vibrascope/internal/telemetry"
)

var (
	tuningPath   = flag.String("tuning", "", "Path to tuning JSON (defaults apply when empty)")
	dataDir      = flag.String("data", "vibrascope_data", "Directory for session logs and calibration")
	scenarioName = flag.String("scenario", "bench", "Simulated source: bench or worn-bearing")
	seed         = flag.Int64("seed", 1, "Simulation seed")
	duration     = flag.Duration("duration", 0, "Stop after this long (0 runs until a signal)")
	brokerURL    = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://broker:1883 (disabled when empty)")
	mqttTopic    = flag.String("topic", "vibrascope/result", "MQTT topic for results")
	uploadURL    = flag.String("upload", "", "Collection node base URL (upload disabled when empty)")
	uploadKey    = flag.String("upload-key", "", "API token for the collection node")
	description  = flag.String("description", "", "Description stored with the uploaded report")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tuning := &config.Tuning{}
	if *tuningPath != "" {
		loaded, err := config.LoadTuning(*tuningPath)
		if err != nil {
			return fmt.Errorf("loading tuning: %w", err)
		}
		tuning = loaded
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return err
	}

	eng, err := engine.New(tuning)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	store, err := calstore.Open(filepath.Join(*dataDir, "calibration.db"))
	if err != nil {
		return fmt.Errorf("opening calibration store: %w", err)
	}
	defer store.Close()

	if profile, err := store.Load(); err == nil {
		eng.RestoreCalibration(profile)
		log.Printf("restored saved calibration")
	} else if !errors.Is(err, calstore.ErrNoProfile) {
		return err
	}

	var scenario simulate.Scenario
	switch *scenarioName {
	case "bench":
		scenario = simulate.Bench()
	case "worn-bearing":
		scenario = simulate.WornBearing()
	default:
		return fmt.Errorf("unknown scenario %q", *scenarioName)
	}

	var publisher *telemetry.Publisher
	if *brokerURL != "" {
		publisher, err = telemetry.New(telemetry.Config{
			BrokerURL: *brokerURL,
			Topic:     *mqttTopic,
		})
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	sessionPath := filepath.Join(*dataDir, fmt.Sprintf("session_%s.csv", time.Now().Format("20060102_150405")))
	writer, err := export.NewSessionWriter(sessionPath)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	controller := eco.New(
		tuning.GetWakeThreshold(),
		tuning.GetEcoTimeout(),
		tuning.GetActivePeriod(),
		tuning.GetEcoPeriod(),
		tuning.GetUltraPeriod(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	// Audio reaches the engine through the capture pump and mailbox, not
	// inline on the simulated frames.
	var mailbox *audio.Mailbox
	if scenario.PCMBlock > 0 {
		mailbox = audio.NewMailbox()
		pump := audio.NewPump(simulate.NewToneSource(scenario), mailbox, scenario.PCMBlock)
		go pump.Run(ctx)
		scenario.PCMBlock = 0
	}

	source := simulate.NewSource(scenario, *seed, time.Now())
	log.Printf("sampling scenario %q, session log %s", *scenarioName, sessionPath)

	timer := time.NewTimer(controller.Period())
	defer timer.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-timer.C:
			frame := source.Frame(now)
			if mailbox != nil {
				if pcm, ok := mailbox.Take(); ok {
					frame.PCM = pcm
				}
			}
			res := eng.Process(frame)
			controller.Observe(res.VibrationRMS, now)

			if err := writer.Append(frame.TimestampNanos, res); err != nil {
				writer.Close()
				return fmt.Errorf("writing session log: %w", err)
			}
			if publisher != nil {
				if err := publisher.Publish(now, res); err != nil {
					log.Printf("telemetry publish failed: %v", err)
				}
			}
			timer.Reset(controller.Period())
		}
	}

	log.Printf("shutting down, %d frames logged", writer.Rows())

	if err := store.Save(eng.Calibration()); err != nil {
		log.Printf("saving calibration failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing session log: %w", err)
	}

	bundle, err := export.BundleReport(*dataDir, time.Now(), sessionPath)
	if err != nil {
		return fmt.Errorf("bundling report: %w", err)
	}
	log.Printf("report bundled at %s", bundle)

	if *uploadURL != "" {
		client := report.NewClient(*uploadURL, *uploadKey)
		uploadCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := client.Upload(uploadCtx, bundle, *description); err != nil {
			return fmt.Errorf("uploading report: %w", err)
		}
		log.Printf("report uploaded to %s", *uploadURL)
	}
	return nil
}
