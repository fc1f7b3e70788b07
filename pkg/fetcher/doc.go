// Package fetcher retrieves the tag labels of a single problem page.
//
// Session is the contract the scrape loop depends on. HTTPSession implements
// it with net/http and goquery; pass a render endpoint in the scraper
// configuration to fetch client-side rendered pages through a headless
// browser service.
package fetcher
