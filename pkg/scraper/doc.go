// Package scraper contains the checkpointed iteration controller of a scrape run.
//
// The Controller walks an ascending, pre-enumerated item list starting after
// the stored checkpoint. For each item it asks the fetcher.Session for tags,
// stores the record, advances the checkpoint and paces before the next item.
// A failed fetch resets the session and retries the same item after a
// recovery delay; more than MaxConsecutiveFailures failures in a row abort the
// run with the checkpoint still at the last stored item.
//
//	ctrl := scraper.New(session, checkpointMgr, records, pacer, scraper.Options{
//		ProblemBaseURL:         cfg.Scraper.ProblemBaseURL,
//		MaxConsecutiveFailures: cfg.Retry.MaxConsecutiveFailures,
//		Recovery:               &retry.ConstantBackoff{Delay: cfg.Retry.RecoveryDelay},
//	})
//	result, err := ctrl.Run(ctx, items)
package scraper
