// Package handshake carries session tokens between a host context and
// an embedded one during startup.
//
// An embedded process (a webview, an iframe shell, a helper window)
// cannot read the host's storage. It acquires the session token through
// two mechanisms this package provides:
//
//   - A transient launch parameter ([Params]): the host plants the
//     token under [ParamKey] when it spawns the embedded context. The
//     parameter is take-once; reading it scrubs it so the token never
//     lingers in navigation history or parameter snapshots.
//   - A request/reply channel ([Channel]): the embedded side asks the
//     running host for its current token. [Pipe] links two engines in
//     one process; [SocketChannel] and [Host] do the same over a unix
//     socket with newline-delimited JSON frames.
//
// Channels may deliver late or duplicate replies. That is expected: the
// engine accepts the first outcome and counts the rest, so
// implementations do not need exactly-once delivery.
//
// # What this package must NOT do
//
//   - Decode, validate, or judge tokens; it is transport only.
//   - Log token values. Log fingerprints.
//   - Retry on its own; the engine owns timing and gives up via its
//     handshake timeout.
package handshake
