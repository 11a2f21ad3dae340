package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSlider(t *testing.T) {
	ObserveSlider(3, 505)
	assert.Equal(t, float64(505), testutil.ToFloat64(SliderValue.WithLabelValues("3")))

	ObserveSlider(3, 10)
	assert.Equal(t, float64(10), testutil.ToFloat64(SliderValue.WithLabelValues("3")))
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, zerolog.Nop()) }()

	FramesDecoded.Inc()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err = io.ReadAll(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, string(body), "gain_frames_decoded_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
