// Package websocket pushes session updates to browsers and other watchers.
//
// A central Hub tracks the clients connected to each session. Clients
// connect with ?session=<id> and receive a JSON Message every time a
// command, run or reset changes that session's rovers:
//
//	{"session_id": "ab12", "event": "state_update", "state": {...}}
//
// When a session is deleted its watchers receive a "session_deleted" event.
// Messages from clients are read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID)
//	hub.BroadcastToSession(sessionID, state)
//
// Registration, unregistration and broadcasts are serialized on the Run
// goroutine; BroadcastToSession and BroadcastEvent are safe to call from any
// goroutine once Run has started.
package websocket
