// Package client provides the outbound HTTP client used to reach the remote
// builder.
//
// Built on go-resty/resty over the pooled transport from
// hashicorp/go-retryablehttp, with:
//   - exactly one upstream request per call (retries are user-initiated)
//   - a per-request timeout
//   - an optional golang.org/x/time/rate limiter shared by all callers
//   - a resilience.Breaker that fails fast while the upstream is down;
//     transport errors and 5xx responses count, caller cancellation does not
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultOptions())
//	req, err := c.Request(ctx)
//	resp, err := c.Execute(func() (*resty.Response, error) {
//		return req.SetBody(body).Post(url)
//	})
package client
