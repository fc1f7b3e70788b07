// Package catalog is the HTTP client for the remote problem catalog.
//
// ListAlgorithms reads the REST algorithms list that seeds a scrape run.
// AllQuestions reads the GraphQL allQuestions catalog, tags included, that a
// sync run reconciles into the database. Requests go through a shared
// ratelimit.RequestLimiter and are retried with retry.Do for network, rate
// limit and server errors.
package catalog
