/*
Package relay carries console output from sandboxed preview documents back
to the host as an ordered log.

Every mounted document is rendered with a generation ID and a random token
(see Instrument). The injected script wraps console.log/info/warn/error and
the global error handler, and posts {kind, level, message, line} together
with those two values. Deliver appends a message only when its generation is
the one currently registered for the slot and its token matches, so output
from a torn-down document can never land in the log of its replacement.

Runtime errors are logged at error level as "Uncaught <message> (line N)".
*/
package relay
