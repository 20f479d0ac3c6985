package websocket

import (
	"sort"
	"sync"
)

// PresenceEvent is emitted when a user goes from zero to one live connection or back.
type PresenceEvent struct {
	UserID   string
	IsOnline bool
}

// PresenceTracker maps user ids to their live connection ids. A user is online while the
// set is non-empty. State lives only in memory and starts empty on every process start.
type PresenceTracker struct {
	mu          sync.RWMutex
	connections map[string]map[string]struct{}
	listener    func(PresenceEvent)

	// transitions queued under mu, delivered in order by one draining caller
	pending  []PresenceEvent
	draining bool
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		connections: make(map[string]map[string]struct{}),
	}
}

// OnTransition installs the single transition listener. Events reach it in state order
// and outside the tracker lock, one at a time.
func (p *PresenceTracker) OnTransition(listener func(PresenceEvent)) {
	p.mu.Lock()
	p.listener = listener
	p.mu.Unlock()
}

// MarkOnline records connectionID for userID and reports whether the user just came online.
func (p *PresenceTracker) MarkOnline(userID, connectionID string) bool {
	if userID == "" || connectionID == "" {
		return false
	}

	p.mu.Lock()
	defer p.flush()

	conns, ok := p.connections[userID]
	if !ok {
		conns = make(map[string]struct{})
		p.connections[userID] = conns
	}
	if _, exists := conns[connectionID]; exists {
		return false
	}
	conns[connectionID] = struct{}{}

	if len(conns) == 1 {
		p.emitLocked(PresenceEvent{UserID: userID, IsOnline: true})
		return true
	}
	return false
}

// MarkOffline drops connectionID and reports whether it was the user's last connection.
func (p *PresenceTracker) MarkOffline(userID, connectionID string) bool {
	p.mu.Lock()
	defer p.flush()

	conns, ok := p.connections[userID]
	if !ok {
		return false
	}
	if _, exists := conns[connectionID]; !exists {
		return false
	}
	delete(conns, connectionID)

	if len(conns) == 0 {
		delete(p.connections, userID)
		p.emitLocked(PresenceEvent{UserID: userID, IsOnline: false})
		return true
	}
	return false
}

// MarkAway handles an explicit away signal: the user is offline regardless of how many
// connections are still open, until the next online signal.
func (p *PresenceTracker) MarkAway(userID string) bool {
	p.mu.Lock()
	defer p.flush()

	if _, ok := p.connections[userID]; !ok {
		return false
	}
	delete(p.connections, userID)
	p.emitLocked(PresenceEvent{UserID: userID, IsOnline: false})
	return true
}

func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.connections[userID]) > 0
}

func (p *PresenceTracker) ConnectionCount(userID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.connections[userID])
}

// OnlineUsers returns the ids of every online user, sorted.
func (p *PresenceTracker) OnlineUsers() []string {
	p.mu.RLock()
	users := make([]string, 0, len(p.connections))
	for userID := range p.connections {
		users = append(users, userID)
	}
	p.mu.RUnlock()

	sort.Strings(users)
	return users
}

func (p *PresenceTracker) emitLocked(event PresenceEvent) {
	if p.listener != nil {
		p.pending = append(p.pending, event)
	}
}

// flush releases mu, which the caller holds, and delivers queued transitions unless
// another caller is already doing so.
func (p *PresenceTracker) flush() {
	if p.draining || len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	p.draining = true

	for {
		if len(p.pending) == 0 {
			p.draining = false
			p.mu.Unlock()
			return
		}
		event := p.pending[0]
		p.pending = p.pending[1:]
		listener := p.listener
		p.mu.Unlock()

		listener(event)

		p.mu.Lock()
	}
}
