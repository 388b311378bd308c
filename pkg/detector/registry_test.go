package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mfreeman451/detectorradar/pkg/fanout"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

func emptyResults() *scan.DiscoverResults {
	ch := make(chan fanout.Outcome[models.Target, *models.Identity])
	close(ch)

	return fanout.Collect(ch, 0)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handle := NewMockHandle(ctrl)
	r := NewRegistry()

	require.NoError(t, r.Register("mock", Factory{
		Description: "mocked detector",
		Build: func(_ context.Context, url string) (Handle, error) {
			assert.Equal(t, "http://det1", url)
			return handle, nil
		},
	}))

	err := r.Register("mock", Factory{})
	require.ErrorIs(t, err, errDuplicate)

	f, err := r.Get("mock")
	require.NoError(t, err)
	assert.Equal(t, "mocked detector", f.Description)

	h, err := r.Build(context.Background(), "mock", "http://det1")
	require.NoError(t, err)
	assert.Same(t, handle, h)

	_, err = r.Get("nope")
	require.ErrorIs(t, err, ErrUnknownDetector)

	_, err = r.Build(context.Background(), "nope", "")
	require.ErrorIs(t, err, ErrUnknownDetector)

	_, err = r.Scan(context.Background(), "mock", ScanOptions{})
	require.ErrorIs(t, err, ErrScanUnsupported)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"simulator", "eiger", "andor"} {
		require.NoError(t, r.Register(name, Factory{}))
	}

	assert.Equal(t, []string{"andor", "eiger", "simulator"}, r.Names())
}

func TestRegistry_ScanAll(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")

	require.NoError(t, r.Register("fast", Factory{
		Scan: func(context.Context, ScanOptions) (*scan.DiscoverResults, error) {
			return emptyResults(), nil
		},
	}))
	require.NoError(t, r.Register("broken", Factory{
		Scan: func(context.Context, ScanOptions) (*scan.DiscoverResults, error) {
			return nil, boom
		},
	}))
	require.NoError(t, r.Register("stuck", Factory{
		Scan: func(context.Context, ScanOptions) (*scan.DiscoverResults, error) {
			time.Sleep(time.Second)
			return emptyResults(), nil
		},
	}))
	require.NoError(t, r.Register("passive", Factory{}))

	start := time.Now()
	reports := r.ScanAll(context.Background(), ScanOptions{Timeout: 200 * time.Millisecond})

	assert.Less(t, time.Since(start), 700*time.Millisecond)
	require.Len(t, reports, 4)

	byName := make(map[string]ScanReport)
	for _, rep := range reports {
		byName[rep.DetectorType] = rep
	}

	require.NoError(t, byName["fast"].Err)
	assert.Empty(t, byName["fast"].Identities())
	require.ErrorIs(t, byName["broken"].Err, boom)
	require.ErrorIs(t, byName["stuck"].Err, ErrScanTimeout)
	require.ErrorIs(t, byName["passive"].Err, ErrScanUnsupported)
	assert.Nil(t, byName["stuck"].Identities())
}
