// Package ws runs editor sessions over WebSocket.
//
// Each connection owns one preview slot. Edits arrive as frames and feed the
// slot; the slot mounts documents through the session, which ships them to
// the host page. The host page puts each document in a sandboxed frame and
// forwards whatever the frame posts back as relay frames, which the console
// relay checks against the slot's current generation before logging.
package ws
