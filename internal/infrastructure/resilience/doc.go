/*
Package resilience provides a circuit breaker for calls to external services.

The breaker has three states. Closed lets every call through and counts
failures; once ReadyToTrip approves, it opens and rejects calls with
ErrCircuitOpen until Timeout elapses; it then goes half-open and lets
MaxRequests trial calls through, closing again after that many successes or
reopening on the first failure.

# Usage

	breaker := resilience.New("pen-records", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	pen, err := resilience.Execute(breaker, func() (*pen.Pen, error) {
		return client.fetch(ctx, id)
	})
*/
package resilience
