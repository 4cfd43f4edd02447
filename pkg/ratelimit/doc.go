// Package ratelimit paces traffic to the site.
//
// RequestLimiter caps the overall request rate using golang.org/x/time/rate.
// Pacer inserts a fixed delay between consecutive listing pages. Both honor
// context cancellation while waiting.
package ratelimit
