package telemetry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

func TestQuaternionCodec(t *testing.T) {
	q := spatial.FromAxisAngle(spatial.Vec(1, 2, 3), 0.7)
	b := EncodeQuaternion(q)
	require.Len(t, b, QuaternionPacketSize)

	got, err := DecodeQuaternion(b)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	_, err = DecodeQuaternion(b[:31])
	assert.ErrorIs(t, err, ErrPacketSize)
}

func TestServoCodecDegrees(t *testing.T) {
	b := make([]byte, ServoPacketSize)
	putFloats(b, 5, -2)
	a, err := DecodeServo(b)
	require.NoError(t, err)
	assert.InDelta(t, 5*math.Pi/180, a.X, 1e-15)
	assert.InDelta(t, -2*math.Pi/180, a.Y, 1e-15)

	back, err := DecodeServo(EncodeServo(a))
	require.NoError(t, err)
	assert.InDelta(t, a.X, back.X, 1e-15)

	_, err = DecodeServo([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrPacketSize)
}

// groundStation upgrades one connection, sends the given setpoints and
// forwards every attitude packet it receives.
func groundStation(t *testing.T, send []sim.ServoAngles, attitudes chan<- spatial.Quaternion) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, sp := range send {
			if err := conn.WriteMessage(websocket.BinaryMessage, EncodeServo(sp)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if q, err := DecodeQuaternion(data); err == nil {
				attitudes <- q
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestBridgeRoundTrip(t *testing.T) {
	attitudes := make(chan spatial.Quaternion, 1)
	srv := groundStation(t, []sim.ServoAngles{{X: 0.05, Y: -0.02}}, attitudes)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer b.Close()

	var x, y float64
	require.Eventually(t, func() bool {
		var ok bool
		x, y, ok = b.Setpoint(0, 0, design.InitialState())
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0.05, x, 1e-12)
	assert.InDelta(t, -0.02, y, 1e-12)

	_, _, ok := b.Setpoint(1, 0, design.InitialState())
	assert.False(t, ok, "each packet is delivered once")

	q := spatial.FromAxisAngle(spatial.UnitX, 0.1)
	require.NoError(t, b.SendAttitude(q))
	select {
	case got := <-attitudes:
		assert.Equal(t, q, got)
	case <-time.After(2 * time.Second):
		t.Fatal("attitude never reached the ground station")
	}

	received, dropped, sent := b.Stats()
	assert.Equal(t, uint64(1), received)
	assert.Zero(t, dropped)
	assert.Equal(t, uint64(1), sent)
}

func TestBridgeDropsWhenFull(t *testing.T) {
	send := make([]sim.ServoAngles, 5)
	srv := groundStation(t, send, make(chan spatial.Quaternion, 1))

	b, err := Dial(context.Background(), wsURL(srv), WithQueueSize(2))
	require.NoError(t, err)
	defer b.Close()

	require.Eventually(t, func() bool {
		received, _, _ := b.Stats()
		return received == 5
	}, 2*time.Second, 5*time.Millisecond)
	_, dropped, _ := b.Stats()
	assert.Equal(t, uint64(3), dropped)
}

func TestBridgeClose(t *testing.T) {
	srv := groundStation(t, nil, make(chan spatial.Quaternion, 1))
	b, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)

	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.ErrorIs(t, b.SendAttitude(spatial.Identity()), ErrClosed)

	select {
	case <-b.Done():
	default:
		t.Fatal("reader should have stopped")
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/none")
	assert.Error(t, err)
}

func TestServoCodecRejectsNonFinite(t *testing.T) {
	nan := make([]byte, ServoPacketSize)
	for i := 0; i < 8; i++ {
		nan[i] = 0xff
	}
	_, err := DecodeServo(nan)
	assert.ErrorIs(t, err, ErrBadPacket)

	inf := make([]byte, ServoPacketSize)
	putFloats(inf, 1, math.Inf(-1))
	_, err = DecodeServo(inf)
	assert.ErrorIs(t, err, ErrBadPacket)
}

func TestBridgeSkipsNonFiniteSetpoints(t *testing.T) {
	send := []sim.ServoAngles{{X: math.NaN()}, {X: 0.01, Y: 0.02}}
	srv := groundStation(t, send, make(chan spatial.Quaternion, 1))

	b, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer b.Close()

	var x, y float64
	require.Eventually(t, func() bool {
		var ok bool
		x, y, ok = b.Setpoint(0, 0, design.InitialState())
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0.01, x, 1e-12)
	assert.InDelta(t, 0.02, y, 1e-12)

	received, _, _ := b.Stats()
	assert.Equal(t, uint64(1), received)
}

func TestBridgeCloseHandshakeWithoutWriteTimeout(t *testing.T) {
	codes := make(chan int, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					codes <- ce.Code
				} else {
					codes <- -1
				}
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	b, err := Dial(context.Background(), wsURL(srv), WithWriteTimeout(0))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	select {
	case code := <-codes:
		assert.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("ground station never saw the connection end")
	}
}
