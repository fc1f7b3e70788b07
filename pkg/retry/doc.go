// Package retry provides backoff strategies and a bounded retry loop.
//
// ConstantBackoff drives the scrape loop's recovery delay between attempts at
// the same item. ExponentialBackoff and ErrorTypeBackoff drive the bounded
// retries of catalog requests, where rate-limit responses back off longer than
// server errors.
//
//	resp, err := retry.DoWithResult(func() (catalogResponse, error) {
//		return fetch(ctx)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.NewErrorTypeBackoff(),
//		Context:     ctx,
//	})
//
// Every wait goes through a WaitFunc so callers and tests can substitute it.
package retry
