package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bridgeim/bridgeclient/chatlog"
)

type fakeStream struct {
	sync.Mutex
	chunks chan []byte
	closes int
}

func newFakeStream(chunks ...[]byte) *fakeStream {
	s := &fakeStream{chunks: make(chan []byte, len(chunks)+1)}
	for _, c := range chunks {
		s.chunks <- c
	}
	return s
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) Close() error {
	s.Lock()
	defer s.Unlock()
	s.closes++
	if s.closes == 1 {
		close(s.chunks)
	}
	return nil
}

func (s *fakeStream) closeCount() int {
	s.Lock()
	defer s.Unlock()
	return s.closes
}

type fakeDevice struct {
	stream *fakeStream
	err    error
	opens  int
}

func (d *fakeDevice) Open(context.Context) (Stream, error) {
	d.opens++
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type fakeBackend struct {
	uploadErr error
	sendErr   error

	filename string
	data     []byte
	sentTo   int64
	content  string
	msgType  string
}

func (b *fakeBackend) UploadVoice(_ context.Context, filename string, data []byte) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	b.filename = filename
	b.data = data
	return "/static/voice/clip.webm", nil
}

func (b *fakeBackend) SendMessage(_ context.Context, chatID int64, content, messageType string) (*chatlog.Message, error) {
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.sentTo = chatID
	b.content = content
	b.msgType = messageType
	return &chatlog.Message{ID: 100, ChatID: chatID, Content: content, MessageType: messageType}, nil
}

func TestRecordAndSend(t *testing.T) {
	stream := newFakeStream([]byte("RIFF"), []byte("data"))
	backend := &fakeBackend{}
	r := NewRecorder(&fakeDevice{stream: stream}, backend, backend)

	assert.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Recording())

	m, err := r.Finish(context.Background(), 42)
	assert.NoError(t, err)
	assert.False(t, r.Recording())

	assert.Equal(t, []byte("RIFFdata"), backend.data)
	assert.True(t, strings.HasPrefix(backend.filename, "voice-"))
	assert.True(t, strings.HasSuffix(backend.filename, ".webm"))

	assert.EqualValues(t, 42, backend.sentTo)
	assert.Equal(t, "/static/voice/clip.webm", backend.content)
	assert.Equal(t, chatlog.TypeVoice, backend.msgType)
	assert.EqualValues(t, 100, m.ID)

	assert.Equal(t, 1, stream.closeCount())
}

func TestDoubleStartRefused(t *testing.T) {
	stream := newFakeStream()
	device := &fakeDevice{stream: stream}
	r := NewRecorder(device, &fakeBackend{}, &fakeBackend{})

	assert.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRecording)
	assert.Equal(t, 1, device.opens)
	r.Cancel()
}

func TestCancelDiscards(t *testing.T) {
	stream := newFakeStream([]byte("data"))
	backend := &fakeBackend{}
	r := NewRecorder(&fakeDevice{stream: stream}, backend, backend)

	assert.NoError(t, r.Start(context.Background()))
	r.Cancel()

	assert.Equal(t, 1, stream.closeCount())
	assert.Empty(t, backend.filename)

	// further Cancel and Finish are no-ops on the released device
	r.Cancel()
	_, err := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotRecording)
	assert.Equal(t, 1, stream.closeCount())
}

func TestFinishWithoutStart(t *testing.T) {
	r := NewRecorder(&fakeDevice{}, &fakeBackend{}, &fakeBackend{})
	_, err := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestDeviceOpenFailure(t *testing.T) {
	boom := errors.New("mic busy")
	r := NewRecorder(&fakeDevice{err: boom}, &fakeBackend{}, &fakeBackend{})

	err := r.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.Recording())

	// a failed start leaves the recorder usable
	_, ferr := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, ferr, ErrNotRecording)
}

func TestEmptyRecording(t *testing.T) {
	stream := newFakeStream()
	backend := &fakeBackend{}
	r := NewRecorder(&fakeDevice{stream: stream}, backend, backend)

	assert.NoError(t, r.Start(context.Background()))
	_, err := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.Empty(t, backend.filename)
	assert.Equal(t, 1, stream.closeCount())
}

func TestUploadFailureSurfaces(t *testing.T) {
	stream := newFakeStream([]byte("data"))
	boom := errors.New("storage down")
	backend := &fakeBackend{uploadErr: boom}
	r := NewRecorder(&fakeDevice{stream: stream}, backend, backend)

	assert.NoError(t, r.Start(context.Background()))
	_, err := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, err, boom)

	// no message goes out and the device is still released
	assert.Empty(t, backend.msgType)
	assert.Equal(t, 1, stream.closeCount())
}

func TestSendFailureSurfaces(t *testing.T) {
	stream := newFakeStream([]byte("data"))
	boom := errors.New("api down")
	backend := &fakeBackend{sendErr: boom}
	r := NewRecorder(&fakeDevice{stream: stream}, backend, backend)

	assert.NoError(t, r.Start(context.Background()))
	_, err := r.Finish(context.Background(), 42)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, backend.filename) // the upload did happen
}
