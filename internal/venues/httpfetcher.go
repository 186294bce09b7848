package venues

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sawpanic/predictmkt/internal/apperr"
)

// HTTPFetcher is the default Fetcher: a small generic JSON-over-HTTP
// client. A venue's actual wire shape is out of scope for this module
// (spec.md §1 treats "the venue HTTP clients ... JSON shape" as an
// external collaborator) — this implementation assumes a reasonably
// generic envelope and exists so the adapter is runnable end to end;
// production deployments are expected to supply their own Fetcher.
type HTTPFetcher struct {
	BaseURL    string
	AuthHeader string // e.g. "Bearer <token>"; empty disables it
	Client     *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher with sane client timeouts.
func NewHTTPFetcher(baseURL, authHeader string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL:    baseURL,
		AuthHeader: authHeader,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type wireEnvelope struct {
	Markets []wireMarket `json:"markets"`
}

type wireMarket struct {
	ID        string            `json:"id"`
	Question  string            `json:"question"`
	Outcomes  []wireOutcome     `json:"outcomes"`
	Volume24h float64           `json:"volume_24h"`
	Liquidity float64           `json:"liquidity"`
	EndDate   *time.Time        `json:"end_date,omitempty"`
	Category  string            `json:"category,omitempty"`
	Closed    bool              `json:"closed"`
	Resolved  bool              `json:"resolved"`
	Extra     map[string]string `json:"-"`
}

type wireOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Rank  int     `json:"rank"`
	Image string  `json:"image,omitempty"`
}

// FetchPage implements Fetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
	u, err := url.Parse(f.BaseURL + "/markets")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("status", string(opts.Status))
	q.Set("limit", strconv.Itoa(opts.Limit))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if f.AuthHeader != "" {
		req.Header.Set("Authorization", f.AuthHeader)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &apperr.AuthError{Venue: f.BaseURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}

	var envelope wireEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	raws := make([]RawMarket, 0, len(envelope.Markets))
	for _, wm := range envelope.Markets {
		outcomes := make([]RawOutcome, 0, len(wm.Outcomes))
		for _, wo := range wm.Outcomes {
			outcomes = append(outcomes, RawOutcome{Name: wo.Name, Price: wo.Price, Rank: wo.Rank, Image: wo.Image})
		}
		raws = append(raws, RawMarket{
			ID:           wm.ID,
			Question:     wm.Question,
			Outcomes:     outcomes,
			Volume24h:    wm.Volume24h,
			Liquidity:    wm.Liquidity,
			EndDate:      wm.EndDate,
			CategoryHint: wm.Category,
			Closed:       wm.Closed,
			Resolved:     wm.Resolved,
		})
	}
	return raws, nil
}
