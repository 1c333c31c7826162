package websocket

import (
	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// SessionUI returns a UI collaborator that broadcasts every rendered frame
// and announcement of a race to the clients of sessionID. It never waits
// for input.
func (h *Hub) SessionUI(sessionID string) engine.UI {
	return &sessionUI{hub: h, sessionID: sessionID}
}

type sessionUI struct {
	hub       *Hub
	sessionID string
}

func (u *sessionUI) Render(view engine.RaceView) {
	cars := make([]CarFrame, 0, len(view.Cars))
	for _, car := range view.Cars {
		if !car.Placed() {
			continue
		}
		cars = append(cars, carFrame(car.State()))
	}
	u.hub.Broadcast(&Message{
		SessionID: u.sessionID,
		Event:     EventFrame,
		Grid:      view.Track.Render(view.Cars),
		Cars:      cars,
	})
}

func (u *sessionUI) Automatic() bool { return true }

func (u *sessionUI) WaitForAdvance() error { return nil }

func (u *sessionUI) Announce(message string) {
	u.hub.BroadcastText(u.sessionID, message)
}

// BroadcastState sends a race snapshot to all clients in a session
func (h *Hub) BroadcastState(sessionID string, state *engine.RaceState) {
	if state == nil {
		return
	}
	cars := make([]CarFrame, 0, len(state.Cars))
	for _, cs := range state.Cars {
		if cs.Placed {
			cars = append(cars, carFrame(cs))
		}
	}
	h.Broadcast(&Message{
		SessionID: sessionID,
		Event:     EventState,
		Grid:      state.Frame,
		Cars:      cars,
		Round:     state.Round,
		Turn:      state.Turn,
		Status:    string(state.Status),
		Winner:    state.Winner,
		Text:      state.Message,
	})
}

func carFrame(cs engine.CarState) CarFrame {
	return CarFrame{
		Name:          cs.Name,
		X:             cs.Position.X,
		Y:             cs.Position.Y,
		AccelerationX: cs.Acceleration.X,
		AccelerationY: cs.Acceleration.Y,
		Alive:         cs.Alive,
	}
}
