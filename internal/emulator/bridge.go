package emulator

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Bridge operations
const (
	OpStart   = "start"
	OpTick    = "tick"
	OpPress   = "press"
	OpRelease = "release"
	OpFacts   = "facts"
	OpReset   = "reset"
	OpClose   = "close"
)

// Request is one command sent to the emulator bridge
type Request struct {
	ID      uint64       `json:"id"`
	Op      string       `json:"op"`
	Frames  int          `json:"frames,omitempty"`
	Buttons []env.Button `json:"buttons,omitempty"`
	ROM     string       `json:"rom,omitempty"`
	Speed   int          `json:"speed,omitempty"`
}

// Response answers exactly one Request
type Response struct {
	ID    uint64     `json:"id"`
	OK    bool       `json:"ok"`
	Error string     `json:"error,omitempty"`
	Alive bool       `json:"alive,omitempty"`
	Facts *env.Facts `json:"facts,omitempty"`
}

// Bridge is an Emulator backed by an emulator-side bridge process reached
// over a websocket. Requests are strictly sequential: one request is in
// flight at a time and each is answered before the next is sent.
type Bridge struct {
	conn   *websocket.Conn
	nextID uint64
	closed bool
}

// DialBridge connects to the bridge at url and starts a session
func DialBridge(ctx context.Context, url string, opts Options, handshakeTimeout time.Duration) (*Bridge, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("emulator: connect %s: %w", url, err)
	}

	b := &Bridge{conn: conn}
	if _, err := b.call(Request{Op: OpStart, ROM: opts.ROM, Speed: opts.Speed}); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bridge) call(req Request) (Response, error) {
	if b.closed {
		return Response{}, ErrClosed
	}

	b.nextID++
	req.ID = b.nextID
	if err := b.conn.WriteJSON(req); err != nil {
		return Response{}, fmt.Errorf("emulator: send %s: %w", req.Op, err)
	}

	var resp Response
	if err := b.conn.ReadJSON(&resp); err != nil {
		return Response{}, fmt.Errorf("emulator: read %s: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("emulator: %s: response id %d, want %d", req.Op, resp.ID, req.ID)
	}
	if !resp.OK {
		return Response{}, fmt.Errorf("emulator: %s: %s", req.Op, resp.Error)
	}
	return resp, nil
}

// Tick advances the emulator by frames
func (b *Bridge) Tick(frames int) (bool, error) {
	resp, err := b.call(Request{Op: OpTick, Frames: frames})
	if err != nil {
		return false, err
	}
	return resp.Alive, nil
}

// Press holds the given buttons
func (b *Bridge) Press(buttons ...env.Button) error {
	if len(buttons) == 0 {
		return nil
	}
	_, err := b.call(Request{Op: OpPress, Buttons: buttons})
	return err
}

// Release lets go of the given buttons
func (b *Bridge) Release(buttons ...env.Button) error {
	if len(buttons) == 0 {
		return nil
	}
	_, err := b.call(Request{Op: OpRelease, Buttons: buttons})
	return err
}

// Facts reads the game wrapper facts
func (b *Bridge) Facts() (env.Facts, error) {
	resp, err := b.call(Request{Op: OpFacts})
	if err != nil {
		return env.Facts{}, err
	}
	if resp.Facts == nil {
		return env.Facts{}, fmt.Errorf("emulator: %s: response without facts", OpFacts)
	}
	return *resp.Facts, nil
}

// Reset restarts the level
func (b *Bridge) Reset() error {
	_, err := b.call(Request{Op: OpReset})
	return err
}

// Close ends the session and closes the connection. It is safe to call more
// than once.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	_, callErr := b.call(Request{Op: OpClose})
	b.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	if err := b.conn.Close(); err != nil {
		return err
	}
	return callErr
}
