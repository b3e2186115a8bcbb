package emulator

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// BridgeHandler serves the bridge protocol over websocket connections, one
// emulator session per connection. It lets a Bridge client drive any
// in-process Emulator, which is how the simulated course is exposed as a
// stand-in bridge.
type BridgeHandler struct {
	open     func(opts Options) (Emulator, error)
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewBridgeHandler creates a handler that opens sessions with open
func NewBridgeHandler(open func(opts Options) (Emulator, error), log *slog.Logger) *BridgeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BridgeHandler{open: open, log: log}
}

func (h *BridgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("bridge upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	var emu Emulator
	defer func() {
		if emu != nil {
			emu.Close()
		}
	}()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("bridge read failed", "remote", r.RemoteAddr, "err", err)
			}
			return
		}

		resp := Response{ID: req.ID, OK: true}
		switch {
		case req.Op == OpStart:
			if emu != nil {
				emu.Close()
			}
			emu, err = h.open(Options{ROM: req.ROM, Speed: req.Speed})
		case emu == nil:
			err = fmt.Errorf("no session, send %q first", OpStart)
		default:
			err = dispatch(emu, req, &resp)
		}
		if err != nil {
			resp.OK = false
			resp.Error = err.Error()
		}

		if err := conn.WriteJSON(resp); err != nil {
			h.log.Debug("bridge write failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		if req.Op == OpClose {
			return
		}
	}
}

func dispatch(emu Emulator, req Request, resp *Response) error {
	switch req.Op {
	case OpTick:
		alive, err := emu.Tick(req.Frames)
		resp.Alive = alive
		return err
	case OpPress:
		return emu.Press(req.Buttons...)
	case OpRelease:
		return emu.Release(req.Buttons...)
	case OpFacts:
		f, err := emu.Facts()
		if err != nil {
			return err
		}
		resp.Facts = &f
		return nil
	case OpReset:
		return emu.Reset()
	case OpClose:
		return nil
	default:
		return fmt.Errorf("unknown op %q", req.Op)
	}
}
