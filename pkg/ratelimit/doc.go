// Package ratelimit paces outbound requests.
//
// SlidingWindow caps the number of requests in a rolling window and backs the
// optional requests-per-minute limit on the HTTP client. Sleep is the
// cancellable pause used for the fixed delay between paste downloads.
package ratelimit
