/*
Package resilience provides a circuit breaker for calls to the remote builder.

When the builder is down, every run would otherwise wait out the full request
timeout. The breaker fails those runs fast until the builder recovers.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

# Usage

	breaker := resilience.New("builder", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	url, err := resilience.Do(breaker, func() (string, error) {
		return submit(ctx)
	})
*/
package resilience
