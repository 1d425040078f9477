package runtime

import (
	"fmt"
	"log/slog"

	"pairchat/contract"
	"pairchat/domain/event"
)

// BroadcastRouter delivers typed events to the live connections of a room.
//
// It provides best-effort fan-out with no delivery, ordering, durability,
// or retry guarantees. A connection that is gone by delivery time silently
// misses the event; the persisted record stays the source of truth and is
// recoverable on the next fetch.
type BroadcastRouter struct {
	presence contract.IPresence
	log      *slog.Logger
}

func NewBroadcastRouter(presence contract.IPresence, log *slog.Logger) *BroadcastRouter {
	return &BroadcastRouter{presence: presence, log: log}
}

// Broadcast is the inclusive fan-out: every registered connection of the
// room receives e, the originator included. The originator relies on this
// echo as its confirmation; there is no separate ack channel.
func (r *BroadcastRouter) Broadcast(e event.Outbound) {
	conns := r.presence.Conns(e.RoomID())
	r.log.Debug(fmt.Sprintf("Fanning out %s to %d connections", e.Name(), len(conns)))
	for _, conn := range conns {
		conn.Deliver(e)
	}
}

// BroadcastExcept is the exclusive fan-out, used for typing indicators
// only: everyone in the room except the originator.
func (r *BroadcastRouter) BroadcastExcept(e event.Outbound, exceptUserID string) {
	for userID, conn := range r.presence.Conns(e.RoomID()) {
		if userID == exceptUserID {
			continue
		}
		conn.Deliver(e)
	}
}
