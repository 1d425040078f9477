//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import "pairchat/domain/event"

// Conn is one live connection bound to a (room, user) pair.
// Deliver is best-effort: a closed or saturated connection silently
// misses the event, the store remains the source of truth.
type Conn interface {
	Deliver(e event.Outbound)
}

// IPresence tracks which participants of a room currently hold a live
// connection. Join and Leave are linearized against connection identity,
// not userID, so a stale disconnect can never evict a newer connection.
type IPresence interface {
	Join(roomID, userID string, conn Conn) ([]string, error)
	Leave(roomID, userID string, conn Conn) bool
	Members(roomID string) []string
	Conns(roomID string) map[string]Conn
}

// IRouter fans a typed event out to the live connections of its room.
type IRouter interface {
	Broadcast(e event.Outbound)
	BroadcastExcept(e event.Outbound, exceptUserID string)
}
