package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/audio"
)

type fakeTrack struct {
	format  audio.Format
	chunks  chan []byte
	once    sync.Once
	stopped bool
	mu      sync.Mutex
}

func newFakeTrack(format audio.Format, data ...[]byte) *fakeTrack {
	t := &fakeTrack{format: format, chunks: make(chan []byte, len(data)+1)}
	for _, d := range data {
		t.chunks <- d
	}
	return t
}

func (t *fakeTrack) Chunks() <-chan []byte { return t.chunks }
func (t *fakeTrack) Format() audio.Format  { return t.format }

func (t *fakeTrack) Stop() {
	t.once.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.chunks)
	})
}

func (t *fakeTrack) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeDevice struct {
	track       *fakeTrack
	err         error
	constraints audio.Constraints
}

func (d *fakeDevice) Acquire(_ context.Context, c audio.Constraints) (Track, error) {
	d.constraints = c
	if d.err != nil {
		return nil, d.err
	}
	return d.track, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_StartStopContainer(t *testing.T) {
	track := newFakeTrack(audio.Format{MIMEType: audio.MIMEWebM}, []byte("ab"), []byte("cd"))
	device := &fakeDevice{track: track}
	r := NewRecorder(device, audio.DefaultConstraints(), testLogger())

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.IsRecording())
	assert.True(t, device.constraints.EchoCancellation)
	assert.True(t, device.constraints.NoiseSuppression)

	payload, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), payload.Data)
	assert.Equal(t, audio.MIMEWebM, payload.MIMEType)
	assert.True(t, track.isStopped())
	assert.False(t, r.IsRecording())
}

func TestRecorder_PCMIsWrappedAsWAV(t *testing.T) {
	pcm := audio.Int16ToPCM([]int16{1, 2, 3})
	track := newFakeTrack(audio.Format{MIMEType: audio.MIMEPCM, SampleRate: 16000, Channels: 1}, pcm)
	r := NewRecorder(&fakeDevice{track: track}, audio.DefaultConstraints(), testLogger())

	require.NoError(t, r.Start(context.Background()))
	payload, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, audio.MIMEWAV, payload.MIMEType)

	w, err := audio.DecodeWAV(payload.Data)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, w.Samples)
}

func TestRecorder_PermissionDenied(t *testing.T) {
	r := NewRecorder(&fakeDevice{err: ErrPermissionDenied}, audio.DefaultConstraints(), testLogger())

	err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, r.IsRecording())
}

func TestRecorder_AlreadyRecording(t *testing.T) {
	track := newFakeTrack(audio.Format{MIMEType: audio.MIMEWebM}, []byte("x"))
	r := NewRecorder(&fakeDevice{track: track}, audio.DefaultConstraints(), testLogger())

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRecording)
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	r := NewRecorder(&fakeDevice{}, audio.DefaultConstraints(), testLogger())

	_, err := r.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorder_EmptyRecordingStillReleasesDevice(t *testing.T) {
	track := newFakeTrack(audio.Format{MIMEType: audio.MIMEWebM})
	r := NewRecorder(&fakeDevice{track: track}, audio.DefaultConstraints(), testLogger())

	require.NoError(t, r.Start(context.Background()))
	_, err := r.Stop(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.True(t, track.isStopped())
}

type stuckTrack struct {
	fakeTrack
}

// Stop releases the device but never closes the chunk stream.
func (t *stuckTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func TestRecorder_StopHonoursContext(t *testing.T) {
	track := &stuckTrack{fakeTrack{format: audio.Format{MIMEType: audio.MIMEWebM}, chunks: make(chan []byte)}}
	device := &stuckDevice{track: track}
	r := NewRecorder(device, audio.DefaultConstraints(), testLogger())

	require.NoError(t, r.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Stop(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, track.isStopped())
	assert.False(t, r.IsRecording())
}

type stuckDevice struct {
	track *stuckTrack
}

func (d *stuckDevice) Acquire(context.Context, audio.Constraints) (Track, error) {
	return d.track, nil
}

func TestMicrophoneStub(t *testing.T) {
	if _, ok := any(NewMicrophone(testLogger())).(Device); !ok {
		t.Fatal("microphone must implement Device")
	}
}
