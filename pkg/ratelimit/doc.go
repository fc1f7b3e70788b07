// Package ratelimit paces a scrape run and bounds outbound request rates.
//
// Pacer applies the delay after each completed item: a short delay normally,
// and a long cooldown on every positive multiple of PauseEvery, after which the
// caller resets its page session. RequestLimiter wraps golang.org/x/time/rate
// for HTTP clients and can be slowed down at runtime.
//
//	pacer := ratelimit.NewPacer(cfg.RateLimit, log)
//	pause, err := pacer.After(ctx, index)
//	if pause == ratelimit.PauseLong {
//	    err = session.Reset(ctx)
//	}
package ratelimit
