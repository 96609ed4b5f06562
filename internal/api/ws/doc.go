// Package ws pushes preview session changes to the editor page.
//
// Every connection subscribes to the caller's session and owns a host.Host,
// so the remount flag is computed per open page. The page rebuilds its
// preview iframe only when a pushed message carries remount, except for the
// first message of a reconnect whose generation it already shows.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - session: current snapshot, frame and remount flag (sent on connect and
//     after every transition)
//   - pong: reply to ping
//   - error: unknown message type
//
// Example Usage:
//
//	handler := ws.NewHandler(workspaces, logger, metrics)
//	api.GET("/stream", handler.HandleConnection)
package ws
