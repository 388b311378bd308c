package acquisition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

func mockCapabilities() detector.Capabilities {
	return detector.Capabilities{
		TriggerModes:   []models.TriggerMode{models.TriggerInternal},
		SavingFormats:  []models.SavingFormat{"EDF", "HDF5"},
		SavingPolicies: []models.SavingPolicy{models.PolicyAbort, models.PolicyOverwrite},
	}
}

func newMockSession(t *testing.T) (*Session, *detector.MockHandle) {
	t.Helper()

	ctrl := gomock.NewController(t)
	handle := detector.NewMockHandle(ctrl)
	handle.EXPECT().Capabilities().Return(mockCapabilities()).AnyTimes()

	return NewSession(handle, WithStopTimeout(500*time.Millisecond)), handle
}

func expectConfigure(handle *detector.MockHandle, saving bool) {
	handle.EXPECT().ConfigureAcquisition(gomock.Any(), gomock.Any()).Return(nil)

	if saving {
		handle.EXPECT().ConfigureSaving(gomock.Any(), gomock.Any()).Return(nil)
	}

	handle.EXPECT().ConfigureBuffer(gomock.Any(), gomock.Any()).Return(nil)
}

func TestSession_ConfigureRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AcquisitionConfig)
	}{
		{name: "negative frames", mutate: func(c *models.AcquisitionConfig) { c.NbFrames = -1 }},
		{name: "negative exposure", mutate: func(c *models.AcquisitionConfig) { c.ExposureTime = -0.1 }},
		{name: "negative latency", mutate: func(c *models.AcquisitionConfig) { c.LatencyTime = -1 }},
		{name: "unknown trigger", mutate: func(c *models.AcquisitionConfig) { c.Trigger = "sometimes" }},
		{name: "unsupported trigger", mutate: func(c *models.AcquisitionConfig) { c.Trigger = "ext-gate" }},
		{name: "buffer too large", mutate: func(c *models.AcquisitionConfig) { c.MaxBufferSize = 120 }},
		{name: "buffer zero", mutate: func(c *models.AcquisitionConfig) { c.MaxBufferSize = 0 }},
		{name: "no saving tasks", mutate: func(c *models.AcquisitionConfig) { c.NbSavingTasks = 0 }},
		{name: "unsupported format", mutate: func(c *models.AcquisitionConfig) {
			c.SavingDirectory = "/tmp"
			c.SavingFormat = "TIFF"
		}},
		{name: "unknown format", mutate: func(c *models.AcquisitionConfig) {
			c.SavingDirectory = "/tmp"
			c.SavingFormat = "JPEG"
		}},
		{name: "unsupported policy", mutate: func(c *models.AcquisitionConfig) {
			c.SavingDirectory = "/tmp"
			c.SavingPolicy = models.PolicyAppend
		}},
		{name: "zero frames per file", mutate: func(c *models.AcquisitionConfig) {
			c.SavingDirectory = "/tmp"
			c.FramesPerFile = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newMockSession(t)

			cfg := models.DefaultAcquisitionConfig()
			tt.mutate(&cfg)

			err := s.Configure(context.Background(), cfg)
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, models.StateFaulted, s.State())

			_, ok := s.Config()
			assert.False(t, ok)
		})
	}
}

func TestSession_ConfigureResolvesValues(t *testing.T) {
	s, handle := newMockSession(t)

	var pushed *models.AcquisitionConfig

	handle.EXPECT().ConfigureAcquisition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg *models.AcquisitionConfig) error {
			pushed = cfg
			return nil
		})
	handle.EXPECT().ConfigureSaving(gomock.Any(), gomock.Any()).Return(nil)
	handle.EXPECT().ConfigureBuffer(gomock.Any(), gomock.Any()).Return(nil)

	cfg := models.DefaultAcquisitionConfig()
	cfg.Trigger = "int"
	cfg.SavingDirectory = t.TempDir()
	cfg.SavingFormat = "hdf5"
	cfg.SavingPolicy = "Overwrite"

	require.NoError(t, s.Configure(context.Background(), cfg))
	assert.Equal(t, models.StateIdle, s.State())

	require.NotNil(t, pushed)
	assert.Equal(t, models.TriggerInternal, pushed.Trigger)
	assert.Equal(t, models.SavingFormat("HDF5"), pushed.SavingFormat)
	assert.Equal(t, models.PolicyOverwrite, pushed.SavingPolicy)
	assert.Equal(t, ".h5", pushed.SavingSuffix)

	applied, ok := s.Config()
	require.True(t, ok)
	assert.Equal(t, *pushed, applied)
}

func TestSession_ConfigureWithoutSavingSkipsSavingSetup(t *testing.T) {
	s, handle := newMockSession(t)
	expectConfigure(handle, false)

	cfg := models.DefaultAcquisitionConfig()
	cfg.SavingFormat = "not-checked-without-directory"

	require.NoError(t, s.Configure(context.Background(), cfg))
}

func TestSession_HandleConfigureFailure(t *testing.T) {
	s, handle := newMockSession(t)
	handle.EXPECT().ConfigureAcquisition(gomock.Any(), gomock.Any()).Return(errors.New("detector offline"))

	err := s.Configure(context.Background(), models.DefaultAcquisitionConfig())
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, models.StateFaulted, s.State())

	// a faulted session can be configured again
	expectConfigure(handle, false)
	require.NoError(t, s.Configure(context.Background(), models.DefaultAcquisitionConfig()))
	assert.Equal(t, models.StateIdle, s.State())
}

func TestSession_Transitions(t *testing.T) {
	ctx := context.Background()
	s, handle := newMockSession(t)

	require.ErrorIs(t, s.Prepare(ctx), ErrInvalidTransition, "prepare before configure")
	require.ErrorIs(t, s.Start(ctx), ErrInvalidTransition, "start before prepare")

	expectConfigure(handle, false)
	require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))

	handle.EXPECT().Prepare(gomock.Any()).Return(nil)
	require.NoError(t, s.Prepare(ctx))
	assert.Equal(t, models.StatePrepared, s.State())

	require.ErrorIs(t, s.Configure(ctx, models.DefaultAcquisitionConfig()), ErrInvalidTransition)
	assert.Equal(t, models.StatePrepared, s.State())

	handle.EXPECT().Start(gomock.Any()).Return(nil)
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, models.StateRunning, s.State())

	running := models.IdleSnapshot()
	running.Acquisition = models.AcqRunning
	running.LastImageAcquired = 3

	done := models.IdleSnapshot()
	done.LastImageAcquired = 9

	handle.EXPECT().Stop(gomock.Any()).Return(nil)
	gomock.InOrder(
		handle.EXPECT().Status(gomock.Any()).Return(running, nil).Times(2),
		handle.EXPECT().Status(gomock.Any()).Return(done, nil),
	)

	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, models.StateCompleted, s.State())
	assert.Equal(t, done, s.LastStatus())
}

func TestSession_StopIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, handle := newMockSession(t)

	// no handle calls outside prepared and running
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, models.StateIdle, s.State())

	expectConfigure(handle, false)
	require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))
	handle.EXPECT().Prepare(gomock.Any()).Return(nil)
	require.NoError(t, s.Prepare(ctx))

	handle.EXPECT().Stop(gomock.Any()).Return(nil).Times(1)
	handle.EXPECT().Status(gomock.Any()).Return(models.IdleSnapshot(), nil).Times(1)

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, models.StateCompleted, s.State())
}

func TestSession_StopAfterErrorIsFaulted(t *testing.T) {
	ctx := context.Background()
	s, handle := newMockSession(t)

	expectConfigure(handle, false)
	require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))
	handle.EXPECT().Prepare(gomock.Any()).Return(nil)
	require.NoError(t, s.Prepare(ctx))
	handle.EXPECT().Start(gomock.Any()).Return(nil)
	require.NoError(t, s.Start(ctx))

	failed := models.IdleSnapshot()
	failed.Acquisition = models.AcqFault
	failed.Error = models.SaveDiskFull

	handle.EXPECT().Stop(gomock.Any()).Return(nil)
	handle.EXPECT().Status(gomock.Any()).Return(failed, nil)

	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, models.StateFaulted, s.State())
}

func TestSession_StopTimeout(t *testing.T) {
	ctx := context.Background()
	s, handle := newMockSession(t)

	expectConfigure(handle, false)
	require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))
	handle.EXPECT().Prepare(gomock.Any()).Return(nil)
	require.NoError(t, s.Prepare(ctx))
	handle.EXPECT().Start(gomock.Any()).Return(nil)
	require.NoError(t, s.Start(ctx))

	running := models.IdleSnapshot()
	running.Acquisition = models.AcqRunning

	handle.EXPECT().Stop(gomock.Any()).Return(nil)
	handle.EXPECT().Status(gomock.Any()).Return(running, nil).MinTimes(1)

	start := time.Now()
	err := s.Stop(ctx)

	require.ErrorIs(t, err, ErrStopTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.StateFaulted, s.State())
}

func TestSession_PrepareAndStartFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("prepare", func(t *testing.T) {
		s, handle := newMockSession(t)
		expectConfigure(handle, false)
		require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))

		handle.EXPECT().Prepare(gomock.Any()).Return(errors.New("no memory"))
		require.ErrorIs(t, s.Prepare(ctx), ErrPrepare)
		assert.Equal(t, models.StateFaulted, s.State())
	})

	t.Run("start", func(t *testing.T) {
		s, handle := newMockSession(t)
		expectConfigure(handle, false)
		require.NoError(t, s.Configure(ctx, models.DefaultAcquisitionConfig()))
		handle.EXPECT().Prepare(gomock.Any()).Return(nil)
		require.NoError(t, s.Prepare(ctx))

		handle.EXPECT().Start(gomock.Any()).Return(errors.New("trigger busy"))
		require.ErrorIs(t, s.Start(ctx), ErrStart)
		assert.Equal(t, models.StateFaulted, s.State())
	})
}

func TestSession_StatusUnavailable(t *testing.T) {
	s, handle := newMockSession(t)
	handle.EXPECT().Status(gomock.Any()).Return(models.StatusSnapshot{}, errors.New("gone"))

	_, err := s.Status(context.Background())
	require.ErrorIs(t, err, ErrStatusUnavailable)
}

func TestSession_CloseOnce(t *testing.T) {
	s, handle := newMockSession(t)
	handle.EXPECT().Close().Return(nil).Times(1)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestSession_Cleanup(t *testing.T) {
	tests := []struct {
		name      string
		cleanup   bool
		saving    bool
		skipped   bool
		remaining []string
	}{
		{
			name: "flag set", cleanup: true, saving: true,
			remaining: []string{"image_0000.h5", "image_sub.edf", "notes.edf", "other_0000.edf"},
		},
		{
			name: "flag unset", cleanup: false, saving: true, skipped: true,
			remaining: []string{"image_0000.edf", "image_0000.h5", "image_0001.edf", "image_sub.edf", "notes.edf", "other_0000.edf"},
		},
		{
			name: "no saving directory", cleanup: true, saving: false, skipped: true,
			remaining: []string{"image_0000.edf", "image_0000.h5", "image_0001.edf", "image_sub.edf", "notes.edf", "other_0000.edf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, "image_0000.edf", "image_0001.edf", "image_0000.h5", "other_0000.edf", "notes.edf")
			require.NoError(t, os.Mkdir(filepath.Join(dir, "image_sub.edf"), 0o755))

			s, handle := newMockSession(t)
			expectConfigure(handle, tt.saving)

			cfg := models.DefaultAcquisitionConfig()
			cfg.Cleanup = tt.cleanup

			if tt.saving {
				cfg.SavingDirectory = dir
			}

			require.NoError(t, s.Configure(context.Background(), cfg))

			report := s.Cleanup()
			assert.Equal(t, tt.skipped, report.Skipped)
			require.NoError(t, report.Err())
			assert.Equal(t, tt.remaining, listDir(t, dir))

			if !tt.skipped {
				assert.Len(t, report.Removed, 2)
			}

			again := s.Cleanup()
			assert.True(t, again.Skipped)
			assert.Empty(t, again.Removed)
		})
	}
}

func TestSession_CleanupAfterFailedConfigure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "image_0000.edf")

	s, handle := newMockSession(t)
	handle.EXPECT().ConfigureAcquisition(gomock.Any(), gomock.Any()).Return(nil)
	handle.EXPECT().ConfigureSaving(gomock.Any(), gomock.Any()).Return(errors.New("read-only"))

	cfg := models.DefaultAcquisitionConfig()
	cfg.SavingDirectory = dir
	cfg.Cleanup = true

	require.ErrorIs(t, s.Configure(context.Background(), cfg), ErrConfiguration)

	report := s.Cleanup()
	assert.False(t, report.Skipped)
	assert.Empty(t, listDir(t, dir))
}

func TestSession_CleanupKeepsUnrelatedFilesAfterFailedConfigure(t *testing.T) {
	tests := []struct {
		name    string
		format  models.SavingFormat
		pushed  bool
		left    []string
		wantErr bool
	}{
		{
			name:    "unknown format",
			format:  "JPEG",
			left:    []string{"image_0000.edf", "image_keep.h5", "image_notes.txt"},
			wantErr: true,
		},
		{
			name:   "lowercase format",
			format: "edf",
			pushed: true,
			left:   []string{"image_keep.h5", "image_notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, "image_0000.edf", "image_notes.txt", "image_keep.h5")

			s, handle := newMockSession(t)
			if tt.pushed {
				handle.EXPECT().ConfigureAcquisition(gomock.Any(), gomock.Any()).Return(nil)
				handle.EXPECT().ConfigureSaving(gomock.Any(), gomock.Any()).Return(errors.New("read-only"))
			}

			cfg := models.DefaultAcquisitionConfig()
			cfg.SavingDirectory = dir
			cfg.SavingFormat = tt.format
			cfg.Cleanup = true

			require.Error(t, s.Configure(context.Background(), cfg))

			report := s.Cleanup()
			assert.False(t, report.Skipped)
			assert.ElementsMatch(t, tt.left, listDir(t, dir))

			if tt.wantErr {
				require.ErrorIs(t, report.Err(), ErrCleanupPattern)
				assert.Empty(t, report.Removed)
			} else {
				require.NoError(t, report.Err())
				assert.Len(t, report.Removed, 1)
			}
		})
	}
}
