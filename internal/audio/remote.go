package audio

import "sync"

// RemoteHandle is used when the display's browser plays the track itself.
// It only records the desired state; the display reads it from the player
// snapshot and reports rejections back through Coordinator.Reject.
type RemoteHandle struct {
	mu       sync.Mutex
	track    string
	playing  bool
	volume   int
	loop     bool
	released bool
}

// NewRemoteFactory returns a Factory producing RemoteHandles.
func NewRemoteFactory() Factory {
	return FactoryFunc(func(track string) (Handle, error) {
		return &RemoteHandle{track: track}, nil
	})
}

func (h *RemoteHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = true
	return nil
}

func (h *RemoteHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
}

func (h *RemoteHandle) SetVolume(volume int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = volume
}

func (h *RemoteHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

func (h *RemoteHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
	h.released = true
}

// Released reports whether Release was called.
func (h *RemoteHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
