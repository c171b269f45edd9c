/*
Package tracing propagates request trace IDs through the service.

Incoming requests get a span from Middleware; the trace and span IDs are
echoed in the X-Trace-ID and X-Span-ID response headers and stored in the
request context. Outgoing calls (the remote pen store) copy them onto their
own headers with Inject, so a single trace ID follows an edit from the
browser to the record API. Finished spans are written to the zap logger.
*/
package tracing
