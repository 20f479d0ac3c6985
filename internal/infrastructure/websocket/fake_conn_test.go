package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	userID string

	mu     sync.Mutex
	frames []Envelope
	raw    [][]byte
	fail   error
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	f.raw = append(f.raw, payload)
	return nil
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.frames))
	for _, env := range f.frames {
		names = append(names, env.Event)
	}
	return names
}

// last returns the most recent frame carrying event, decoding its data into dst.
func (f *fakeConn) last(t *testing.T, event string, dst interface{}) Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].Event != event {
			continue
		}
		if dst != nil {
			var wire struct {
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(f.raw[i], &wire))
			require.NoError(t, json.Unmarshal(wire.Data, dst))
		}
		return f.frames[i]
	}
	t.Fatalf("no %s frame received; got %v", event, f.eventsLocked())
	return Envelope{}
}

func (f *fakeConn) eventsLocked() []string {
	names := make([]string, 0, len(f.frames))
	for _, env := range f.frames {
		names = append(names, env.Event)
	}
	return names
}

func (f *fakeConn) count(event string) int {
	n := 0
	for _, name := range f.events() {
		if name == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.raw = nil
	f.mu.Unlock()
}
