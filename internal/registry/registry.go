// internal/registry/registry.go
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultQueueSize is the outbound buffer per connection.
	DefaultQueueSize = 16

	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
)

const (
	// StatusReplaced closes a connection superseded by a reconnect of the same member.
	StatusReplaced = 4000

	// StatusGoingAway closes a connection whose writes or pings failed.
	StatusGoingAway = 1001
)

// Conn is one bidirectional frame channel to a player.
type Conn interface {
	// Read blocks until the next text frame arrives. Any error ends the connection.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

// Pinger is implemented by connections that support keepalive pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type client struct {
	member int
	conn   Conn
	out    chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// abandon stops queueing for a dead connection and closes it, which ends its
// read side and lets the owner deregister it.
func (c *client) abandon(reason string) {
	c.stop()
	_ = c.conn.Close(StatusGoingAway, reason)
}

// Registry maps lobby rooms to the live connections of their members.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[uuid.UUID]map[int]*client
	queueSize int
	log       logrus.FieldLogger
}

func New(queueSize int, log logrus.FieldLogger) *Registry {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		rooms:     make(map[uuid.UUID]map[int]*client),
		queueSize: queueSize,
		log:       log,
	}
}

// Add registers conn for member in room and starts its write pump. An existing
// connection for the same member is closed and replaced.
func (r *Registry) Add(room uuid.UUID, member int, conn Conn) {
	c := &client{
		member: member,
		conn:   conn,
		out:    make(chan []byte, r.queueSize),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[int]*client)
		r.rooms[room] = members
	}
	old := members[member]
	members[member] = c
	r.mu.Unlock()

	if old != nil && old.conn != conn {
		r.log.WithFields(logrus.Fields{"lobby_id": room, "user_id": member}).
			Info("replacing existing connection")
		old.stop()
		_ = old.conn.Close(StatusReplaced, "replaced by a newer connection")
	}

	go r.writePump(room, c)
}

// Remove deregisters member from room. Unknown rooms and members are ignored.
func (r *Registry) Remove(room uuid.UUID, member int) {
	r.remove(room, member, nil)
}

// RemoveIf deregisters member only while conn is still its registered
// connection, so a stale session cannot evict a reconnect.
func (r *Registry) RemoveIf(room uuid.UUID, member int, conn Conn) bool {
	return r.remove(room, member, conn)
}

func (r *Registry) remove(room uuid.UUID, member int, conn Conn) bool {
	r.mu.Lock()
	members, ok := r.rooms[room]
	if !ok {
		r.mu.Unlock()
		return false
	}
	c, ok := members[member]
	if !ok || (conn != nil && c.conn != conn) {
		r.mu.Unlock()
		return false
	}
	delete(members, member)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	r.mu.Unlock()

	c.stop()
	return true
}

// Broadcast queues data for every member of room except those in excluding.
func (r *Registry) Broadcast(room uuid.UUID, data []byte, excluding ...int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for member, c := range r.rooms[room] {
		if lo.Contains(excluding, member) {
			continue
		}
		r.enqueue(room, c, data)
	}
}

// SendTo queues data for the listed members of room. Unknown members are skipped.
func (r *Registry) SendTo(room uuid.UUID, data []byte, members ...int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := r.rooms[room]
	for _, member := range members {
		if c, ok := clients[member]; ok {
			r.enqueue(room, c, data)
		}
	}
}

// Members returns the registered member ids of room in ascending order.
func (r *Registry) Members(room uuid.UUID) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.rooms[room]))
	for member := range r.rooms[room] {
		out = append(out, member)
	}
	sort.Ints(out)
	return out
}

// Receive streams inbound frames from member's connection. The channel is
// closed when the connection fails to read or ctx is done. An unregistered
// member yields an already closed channel.
func (r *Registry) Receive(ctx context.Context, room uuid.UUID, member int) <-chan []byte {
	frames := make(chan []byte)

	r.mu.RLock()
	c, ok := r.rooms[room][member]
	r.mu.RUnlock()
	if !ok {
		close(frames)
		return frames
	}

	go func() {
		defer close(frames)
		for {
			data, err := c.conn.Read(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.log.WithFields(logrus.Fields{"lobby_id": room, "user_id": member}).
						Debugf("read ended: %v", err)
				}
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames
}

func (r *Registry) enqueue(room uuid.UUID, c *client, data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.out <- data:
	default:
		r.log.WithFields(logrus.Fields{"lobby_id": room, "user_id": c.member}).
			Warn("outbound queue full, dropping frame")
	}
}

func (r *Registry) writePump(room uuid.UUID, c *client) {
	logger := r.log.WithFields(logrus.Fields{"lobby_id": room, "user_id": c.member})

	var tick <-chan time.Time
	pinger, canPing := c.conn.(Pinger)
	if canPing {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write frame: %v", err)
				c.abandon("write failed")
				return
			}
		case <-tick:
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err := pinger.Ping(ctx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed, assuming disconnect: %v", err)
				c.abandon("ping failed")
				return
			}
		}
	}
}
