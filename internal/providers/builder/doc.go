// Package builder submits playground source to the remote builder and
// resolves each submission to a servable preview URL or a Failure.
//
// A submission is a single POST of {"userId", "code"}; the builder answers
// {"url"}. There are no internal retries: a retry is a new run started by
// the user. Every failure wraps ErrBuildFailed and carries a Kind:
//
//	transport  network error, timeout, breaker open
//	status     non-2xx response
//	payload    body is not JSON, or url is missing, empty or not absolute http(s)
//
// Users only ever see the generic label from UserMessage; the kind goes to
// logs and metrics.
package builder
