// Package voice records short audio clips and delivers them as chat
// messages: capture chunks from a device, upload the encoded blob,
// then send a message whose content is the uploaded URL.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/pborman/uuid"

	"github.com/bridgeim/bridgeclient/chatlog"
)

// Device grants access to an audio capture device.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers encoded audio chunks until closed. Close stops the
// capture and releases the device; the chunk channel is closed after
// the final chunk.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
}

// Uploader stores an encoded clip and returns its URL.
type Uploader interface {
	UploadVoice(ctx context.Context, filename string, data []byte) (string, error)
}

// Sender delivers the chat message carrying the clip's URL.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, content, messageType string) (*chatlog.Message, error)
}

var (
	ErrAlreadyRecording = errors.New("voice: recording already in progress")
	ErrNotRecording     = errors.New("voice: no recording in progress")
	ErrEmptyRecording   = errors.New("voice: recording captured no audio")
)

// Recorder runs at most one capture at a time. Whatever happens after
// Start, Finish or Cancel releases the device exactly once.
type Recorder struct {
	sync.Mutex

	device   Device
	uploader Uploader
	sender   Sender

	stream    Stream
	buf       bytes.Buffer
	recording bool
	done      chan struct{}
}

func NewRecorder(device Device, uploader Uploader, sender Sender) *Recorder {
	return &Recorder{device: device, uploader: uploader, sender: sender}
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.Lock()
	defer r.Unlock()
	return r.recording
}

// Start acquires the device and begins buffering chunks. A second
// Start while recording fails without touching the live capture.
func (r *Recorder) Start(ctx context.Context) error {
	r.Lock()
	if r.recording {
		r.Unlock()
		return ErrAlreadyRecording
	}
	r.recording = true
	r.Unlock()

	stream, err := r.device.Open(ctx)
	if err != nil {
		r.Lock()
		r.recording = false
		r.Unlock()
		return fmt.Errorf("voice: open device: %w", err)
	}

	done := make(chan struct{})
	r.Lock()
	r.stream = stream
	r.done = done
	r.buf.Reset()
	r.Unlock()

	go func() {
		defer close(done)
		for chunk := range stream.Chunks() {
			r.Lock()
			r.buf.Write(chunk)
			r.Unlock()
		}
	}()

	glog.V(5).Info("Start(): recording")
	return nil
}

// Cancel stops the capture and discards everything buffered. No
// upload, no message. A no-op when nothing is recording.
func (r *Recorder) Cancel() {
	if data, ok := r.stop(); ok {
		glog.V(5).Infof("Cancel(): dropped %d buffered bytes", len(data))
	}
}

// Finish stops the capture, uploads the clip and sends it to chatID as
// a voice message. On upload or send failure the clip is lost and the
// error is returned; the device is released regardless.
func (r *Recorder) Finish(ctx context.Context, chatID int64) (*chatlog.Message, error) {
	data, ok := r.stop()
	if !ok {
		return nil, ErrNotRecording
	}
	if len(data) == 0 {
		return nil, ErrEmptyRecording
	}

	filename := fmt.Sprintf("voice-%s.webm", uuid.New())
	url, err := r.uploader.UploadVoice(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("voice: upload: %w", err)
	}

	m, err := r.sender.SendMessage(ctx, chatID, url, chatlog.TypeVoice)
	if err != nil {
		return nil, fmt.Errorf("voice: send: %w", err)
	}
	glog.V(5).Infof("Finish(): sent clip %s as message %d", filename, m.ID)
	return m, nil
}

// stop releases the device once, drains the collector and returns the
// buffered clip.
func (r *Recorder) stop() ([]byte, bool) {
	r.Lock()
	if !r.recording {
		r.Unlock()
		return nil, false
	}
	r.recording = false
	stream := r.stream
	done := r.done
	r.stream = nil
	r.done = nil
	r.Unlock()

	if err := stream.Close(); err != nil {
		glog.Errorf("stop(): release device: %v", err)
	}
	<-done // collector flushed the last chunk

	r.Lock()
	defer r.Unlock()
	data := append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()
	return data, true
}
