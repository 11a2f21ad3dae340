package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/ingest"
	"github.com/itohio/gain/pkg/logging"
	"github.com/itohio/gain/pkg/metrics"
	"github.com/itohio/gain/pkg/publish"
	"github.com/itohio/gain/pkg/sim"
	"github.com/itohio/gain/pkg/transport"
	"github.com/itohio/gain/pkg/volume"
	"github.com/rs/zerolog"
)

// pipeline is the wired host process: config store, ingest loop, router and
// the optional MQTT mirror and metrics exporter.
type pipeline struct {
	log       zerolog.Logger
	store     *config.Store
	backend   volume.Backend
	ingest    *ingest.Ingest
	publisher *publish.Publisher
	metrics   string
}

// newPipeline builds the pipeline from the command line flags. Extra
// handlers run after the router.
func newPipeline(extra ...ingest.Handler) (*pipeline, error) {
	log, err := logging.New(os.Stderr, logLevel, logFormat)
	if err != nil {
		return nil, err
	}

	store, err := config.Open(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := store.Current().Config
	log.Info().Str("path", cfgFile).Int("sliders", len(cfg.Sliders)).Msg("configuration loaded")

	backend, err := newBackend(backendName, logging.Component(log, "volume"))
	if err != nil {
		return nil, err
	}
	router := volume.NewRouter(backend, logging.Component(log, "router"))

	p := &pipeline{
		log:     log,
		store:   store,
		backend: backend,
		metrics: cfg.Metrics.Listen,
	}
	if metricsAddr != "" {
		p.metrics = metricsAddr
	}

	handlers := []ingest.Handler{ingest.HandlerFunc(router.Route)}
	if cfg.MQTT.Broker != "" {
		pub, err := publish.Connect(cfg.MQTT, logging.Component(log, "mqtt"))
		if err != nil {
			// The mirror is optional; volume control works without it.
			log.Warn().Err(err).Msg("MQTT publishing disabled")
		} else {
			p.publisher = pub
			handlers = append(handlers, pub)
		}
	}
	handlers = append(handlers, extra...)

	var tr transport.Transport = transport.Serial{}
	port := portName
	if useSim {
		tr = sim.New()
		port = sim.Name
	}

	p.ingest = ingest.New(tr, store, logging.Component(log, "ingest"), handlers...)
	p.ingest.SetPort(port)
	if p.publisher != nil {
		p.ingest.OnState(p.publisher.PublishState)
	}

	return p, nil
}

func newBackend(name string, log zerolog.Logger) (volume.Backend, error) {
	switch name {
	case "pulse":
		pulse, err := volume.ConnectPulse("gain", nil)
		if err != nil {
			return nil, err
		}
		return pulse, nil
	case "mock":
		return volume.NewMock(log), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

// Run serves metrics if enabled and runs the ingest loop until ctx is done.
func (p *pipeline) Run(ctx context.Context) error {
	if p.metrics != "" {
		go func() {
			if err := metrics.Serve(ctx, p.metrics, logging.Component(p.log, "metrics")); err != nil {
				p.log.Error().Err(err).Str("addr", p.metrics).Msg("metrics exporter failed")
			}
		}()
	}

	err := p.ingest.Run(ctx)
	p.log.Info().Msg("stopped")
	return err
}

// Close releases the MQTT and audio server connections.
func (p *pipeline) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
	if c, ok := p.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			p.log.Warn().Err(err).Msg("failed to close audio backend")
		}
	}
}
