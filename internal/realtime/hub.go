package realtime

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

var (
	// ErrSessionClosed is returned by Send once the session's connection is gone.
	ErrSessionClosed = errors.New("session closed")
	// ErrSendBufferFull is returned by Send when the session is not draining its queue.
	ErrSendBufferFull = errors.New("session send buffer full")
)

// Session is one live viewer connection. Send must not block.
type Session interface {
	ID() string
	Send(msg WSMessage) error
}

// room is the membership of one class. Its mutex serializes membership
// changes and fan-out for that class. A room marked closed has been removed
// from the hub and must not gain members.
type room struct {
	mu      sync.Mutex
	members map[string]Session
	pending map[string]*hydration // sessions waiting for their snapshot
	closed  bool
}

// hydration buffers broadcasts for a session whose snapshot is still loading.
type hydration struct {
	msgs []WSMessage
}

// pendingLimit caps the events buffered for one hydrating session.
const pendingLimit = sendBuffer

// Hub maintains class_id -> set of sessions and broadcasts change events.
// A room exists only while it has members. The session index is only
// changed under the room lock, so it always matches room membership.
//
// Lock order: room -> h.mu and room -> h.sessMu, never the reverse.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	sessMu   sync.Mutex
	sessions map[string]map[string]struct{} // session id -> class ids

	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]*room),
		sessions: make(map[string]map[string]struct{}),
		logger:   logger,
	}
}

// openRoom returns classID's live room with its mutex held, creating it if needed.
func (h *Hub) openRoom(classID string) *room {
	for {
		h.mu.Lock()
		r, ok := h.rooms[classID]
		if !ok {
			r = &room{members: make(map[string]Session), pending: make(map[string]*hydration)}
			h.rooms[classID] = r
		}
		h.mu.Unlock()

		r.mu.Lock()
		if !r.closed {
			return r
		}
		r.mu.Unlock()
	}
}

// acquire returns classID's room with its mutex held, or nil if nobody is in it.
func (h *Hub) acquire(classID string) *room {
	h.mu.RLock()
	r := h.rooms[classID]
	h.mu.RUnlock()
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	return r
}

func (h *Hub) track(sessionID, classID string) {
	h.sessMu.Lock()
	joined, ok := h.sessions[sessionID]
	if !ok {
		joined = make(map[string]struct{})
		h.sessions[sessionID] = joined
	}
	joined[classID] = struct{}{}
	h.sessMu.Unlock()
}

func (h *Hub) untrack(sessionID, classID string) {
	h.sessMu.Lock()
	if joined, ok := h.sessions[sessionID]; ok {
		delete(joined, classID)
		if len(joined) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	h.sessMu.Unlock()
}

// Subscribe adds s to classID's room. Repeated calls are no-ops.
func (h *Hub) Subscribe(classID string, s Session) {
	r := h.openRoom(classID)
	r.members[s.ID()] = s
	h.track(s.ID(), classID)
	r.mu.Unlock()
	h.logger.Debug("session joined class", zap.String("session_id", s.ID()), zap.String("class_id", classID))
}

// SubscribeWithSnapshot adds s to classID's room and delivers the result of
// load as a class_snapshot message before any broadcast that happens after
// the subscribe. load runs without the room lock; broadcasts meanwhile are
// buffered for s and flushed after the snapshot. If load fails the session
// stays subscribed, gets the buffered events, and the error is returned.
//
// A later call for the same session and class supersedes an earlier one
// still loading: only the newest snapshot is sent.
func (h *Hub) SubscribeWithSnapshot(classID string, s Session, load func() (interface{}, error)) error {
	hy := &hydration{}
	r := h.openRoom(classID)
	r.members[s.ID()] = s
	if prev, ok := r.pending[s.ID()]; ok {
		hy.msgs = prev.msgs
	}
	r.pending[s.ID()] = hy
	h.track(s.ID(), classID)
	r.mu.Unlock()

	snapshot, err := load()
	var data []byte
	if err == nil {
		data, err = json.Marshal(snapshot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[s.ID()] != hy {
		// Left the room or superseded while loading.
		return err
	}
	delete(r.pending, s.ID())

	if err == nil {
		h.deliver(classID, s, WSMessage{Event: EventClassSnapshot, Data: data})
	}
	for _, msg := range hy.msgs {
		h.deliver(classID, s, msg)
	}
	return err
}

// Unsubscribe removes s from classID's room. Absent sessions are ignored.
func (h *Hub) Unsubscribe(classID string, s Session) {
	h.leave(classID, s.ID())
}

// Disconnect removes s from every room it joined. The transport calls this
// for each connection it tears down.
func (h *Hub) Disconnect(s Session) {
	h.sessMu.Lock()
	joined := make([]string, 0, len(h.sessions[s.ID()]))
	for classID := range h.sessions[s.ID()] {
		joined = append(joined, classID)
	}
	h.sessMu.Unlock()

	for _, classID := range joined {
		h.leave(classID, s.ID())
	}
	h.logger.Debug("session disconnected", zap.String("session_id", s.ID()), zap.Int("rooms", len(joined)))
}

func (h *Hub) leave(classID, sessionID string) {
	r := h.acquire(classID)
	if r == nil {
		return
	}
	defer r.mu.Unlock()
	delete(r.members, sessionID)
	delete(r.pending, sessionID)
	h.untrack(sessionID, classID)
	if len(r.members) > 0 {
		return
	}
	r.closed = true
	h.mu.Lock()
	if h.rooms[classID] == r {
		delete(h.rooms, classID)
	}
	h.mu.Unlock()
}

// Members returns a copy of the sessions currently in classID's room.
func (h *Hub) Members(classID string) []Session {
	r := h.acquire(classID)
	if r == nil {
		return nil
	}
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.members))
	for _, s := range r.members {
		out = append(out, s)
	}
	return out
}

// ViewerCount returns the number of sessions watching classID.
func (h *Hub) ViewerCount(classID string) int {
	r := h.acquire(classID)
	if r == nil {
		return 0
	}
	defer r.mu.Unlock()
	return len(r.members)
}

// BroadcastToClass sends event to every session in classID's room. Delivery
// is best-effort: a failed send is logged and skipped, never returned.
func (h *Hub) BroadcastToClass(classID string, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Error("encode broadcast payload", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	r := h.acquire(classID)
	if r == nil {
		return
	}
	defer r.mu.Unlock()
	for id, s := range r.members {
		if hy, ok := r.pending[id]; ok {
			if len(hy.msgs) >= pendingLimit {
				h.dropped(classID, id, event, ErrSendBufferFull)
				continue
			}
			hy.msgs = append(hy.msgs, msg)
			continue
		}
		h.deliver(classID, s, msg)
	}
}

// deliver sends msg to s without blocking. Failures are logged and dropped.
func (h *Hub) deliver(classID string, s Session, msg WSMessage) {
	if err := s.Send(msg); err != nil {
		h.dropped(classID, s.ID(), msg.Event, err)
	}
}

func (h *Hub) dropped(classID, sessionID, event string, err error) {
	h.logger.Debug("delivery failed",
		zap.String("session_id", sessionID),
		zap.String("class_id", classID),
		zap.String("event", event),
		zap.Error(err),
	)
}
