package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

const (
	DefaultQueueSize    = 64
	DefaultWriteTimeout = time.Second
)

var ErrClosed = errors.New("telemetry: bridge closed")

var (
	_ sim.SetpointSource = (*Bridge)(nil)
	_ sim.AttitudeSink   = (*Bridge)(nil)
)

// Bridge streams the vehicle attitude out and servo setpoints in. Incoming
// setpoints are buffered by a reader goroutine; when the buffer is full new
// packets are dropped so the simulation never blocks on the network.
type Bridge struct {
	conn *websocket.Conn
	log  logging.Log

	setpoints    chan sim.ServoAngles
	writeTimeout time.Duration
	writeMu      sync.Mutex

	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	received atomic.Uint64
	dropped  atomic.Uint64
	sent     atomic.Uint64
}

type Option func(*Bridge)

func WithQueueSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.setpoints = make(chan sim.ServoAngles, n)
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.writeTimeout = d }
}

func WithLogger(l logging.Log) Option {
	return func(b *Bridge) { b.log = l }
}

// Dial connects to a websocket endpoint such as ws://localhost:8765/tvc.
func Dial(ctx context.Context, url string, opts ...Option) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial %s: %w", url, err)
	}
	return NewBridge(conn, opts...), nil
}

// NewBridge takes ownership of conn and starts reading from it.
func NewBridge(conn *websocket.Conn, opts ...Option) *Bridge {
	b := &Bridge{
		conn:         conn,
		log:          logging.NewNop(),
		setpoints:    make(chan sim.ServoAngles, DefaultQueueSize),
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Info("telemetry connected", logging.String("remote", conn.RemoteAddr().String()))
	go b.readLoop()
	return b
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	defer func() {
		received, dropped, sent := b.Stats()
		b.log.Info("telemetry disconnected",
			logging.Int64("received", int64(received)),
			logging.Int64("dropped", int64(dropped)),
			logging.Int64("sent", int64(sent)))
	}()
	for {
		kind, data, err := b.conn.ReadMessage()
		if err != nil {
			if !b.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Warn("telemetry read failed", logging.Error(err))
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		sp, err := DecodeServo(data)
		if err != nil {
			b.log.Warn("discarding malformed setpoint", logging.Error(err))
			continue
		}
		b.received.Add(1)
		select {
		case b.setpoints <- sp:
		default:
			b.dropped.Add(1)
			b.log.Debug("setpoint queue full, dropping packet")
		}
	}
}

// Poll returns the oldest queued setpoint without blocking.
func (b *Bridge) Poll() (sim.ServoAngles, bool) {
	select {
	case sp := <-b.setpoints:
		return sp, true
	default:
		return sim.ServoAngles{}, false
	}
}

// Setpoint hands the simulator at most one queued setpoint per tick.
func (b *Bridge) Setpoint(int, float64, design.State) (x, y float64, ok bool) {
	sp, ok := b.Poll()
	return sp.X, sp.Y, ok
}

func (b *Bridge) SendAttitude(q spatial.Quaternion) error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.writeTimeout > 0 {
		_ = b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, EncodeQuaternion(q)); err != nil {
		return fmt.Errorf("telemetry: send attitude: %w", err)
	}
	b.sent.Add(1)
	return nil
}

// closeTimeout bounds the close handshake even when writes have no deadline.
func (b *Bridge) closeTimeout() time.Duration {
	if b.writeTimeout > 0 {
		return b.writeTimeout
	}
	return DefaultWriteTimeout
}

// Stats reports packet counters since the bridge was created.
func (b *Bridge) Stats() (received, dropped, sent uint64) {
	return b.received.Load(), b.dropped.Load(), b.sent.Load()
}

// Done is closed once the reader goroutine has exited.
func (b *Bridge) Done() <-chan struct{} { return b.done }

func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(b.closeTimeout()))
		b.writeMu.Unlock()
		err = b.conn.Close()
		<-b.done
	})
	return err
}
