// Package metrics exposes Prometheus collectors for the ingest pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// FramesDecoded counts frames decoded into slider events.
	FramesDecoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_frames_decoded_total",
			Help: "Total number of frames decoded into slider events",
		},
	)

	// FramesMalformed counts frames dropped by the decoder.
	FramesMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_frames_malformed_total",
			Help: "Total number of malformed frames dropped",
		},
	)

	// Connects counts successfully opened serial connections.
	Connects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_serial_connects_total",
			Help: "Total number of serial connections opened",
		},
	)

	// ConnectFailures counts failed resolve or open attempts.
	ConnectFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_serial_connect_failures_total",
			Help: "Total number of failed serial connection attempts",
		},
	)

	// Disconnects counts connections lost to I/O errors.
	Disconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_serial_disconnects_total",
			Help: "Total number of serial connections lost",
		},
	)

	// ConfigReloads counts reload attempts by result ("ok", "error").
	ConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gain_config_reloads_total",
			Help: "Total number of configuration reloads by result",
		},
		[]string{"result"},
	)

	// VolumeSets counts volume changes applied by target kind.
	VolumeSets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gain_volume_sets_total",
			Help: "Total number of volume changes applied by target",
		},
		[]string{"target"},
	)

	// SessionFailures counts per-session volume sets that failed.
	SessionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gain_session_failures_total",
			Help: "Total number of failed per-session volume sets",
		},
	)

	// IngestState is the current ingest state (0 disconnected, 1 connecting, 2 streaming).
	IngestState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gain_ingest_state",
			Help: "Current ingest state: 0 disconnected, 1 connecting, 2 streaming",
		},
	)

	// SliderValue holds the last raw value received per slider.
	SliderValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gain_slider_value",
			Help: "Last value received for each slider (0-1023)",
		},
		[]string{"slider"},
	)
)

// ObserveSlider records the last value of slider id.
func ObserveSlider(id uint8, value uint16) {
	SliderValue.WithLabelValues(strconv.Itoa(int(id))).Set(float64(value))
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics exporter listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
