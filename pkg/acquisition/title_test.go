package acquisition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

func TestTitle(t *testing.T) {
	info := detector.Info{Model: "Simulator", Type: "Simulator", Width: 1024, Height: 512, PixelType: "Bpp16"}

	tests := []struct {
		name     string
		nb       int64
		exposure float64
		latency  float64
		want     string
	}{
		{
			name: "exposure only", nb: 10, exposure: 0.1,
			want: "Acquiring on Simulator (Simulator) | 10 x 100ms (10Hz) = 1s | 1024x512 Bpp16",
		},
		{
			name: "with latency", nb: 100, exposure: 0.0005, latency: 0.0005,
			want: "Acquiring on Simulator (Simulator) | 100 x (500µs + 500µs) (1kHz) = 100ms | 1024x512 Bpp16",
		},
		{
			name: "zero frame time", nb: 3,
			want: "Acquiring on Simulator (Simulator) | 3 x 0s (-) = 0s | 1024x512 Bpp16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultAcquisitionConfig()
			cfg.NbFrames = tt.nb
			cfg.ExposureTime = tt.exposure
			cfg.LatencyTime = tt.latency

			assert.Equal(t, tt.want, Title(info, &cfg))
		})
	}
}
