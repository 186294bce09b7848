package venues

import "context"

// Fetcher pulls one page of raw venue records. It is the seam between
// the adapter's own contract (rate limit, retry, paging, normalize,
// health — all in scope and fully implemented here) and a specific
// venue's wire transport (out of scope per spec.md §1, "the venue HTTP
// clients"). Production wiring supplies an HTTP-backed Fetcher; tests
// supply a fake.
type Fetcher interface {
	FetchPage(ctx context.Context, opts Options, page int) ([]RawMarket, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, opts Options, page int) ([]RawMarket, error)

func (f FetcherFunc) FetchPage(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
	return f(ctx, opts, page)
}
