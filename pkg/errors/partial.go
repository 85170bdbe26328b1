package errors

import "fmt"

// PartialCrawlError is returned when a crawl fails after at least one page
// has already been yielded. The items fetched before the failure are
// preserved so the caller can decide whether a partial result is usable.
type PartialCrawlError struct {
	Yielded int
	Err     error
}

func (e *PartialCrawlError) Error() string {
	return fmt.Sprintf("crawl failed after %d items: %v", e.Yielded, e.Err)
}

func (e *PartialCrawlError) Unwrap() error {
	return e.Err
}
