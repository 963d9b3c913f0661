package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/utils"
)

// ErrFetch indicates a backend document could not be retrieved.
var ErrFetch = errors.New("schema fetch failed")

// ErrMalformed indicates a backend document does not have the expected shape.
var ErrMalformed = errors.New("malformed schema")

// Fetcher retrieves the OpenAPI document of one backend.
type Fetcher interface {
	Fetch(ctx context.Context, d domain.ServiceDescriptor) (Document, error)
}

// HTTPFetcher GETs d.SchemaAddress().
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher. A zero timeout relies on ctx alone.
func NewHTTPFetcher(client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, d domain.ServiceDescriptor) (Document, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	url := d.SchemaAddress()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, d.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, d.Name, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: GET %s returned HTTP %d", ErrFetch, d.Name, url, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, d.Name, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s: document is null", ErrMalformed, d.Name)
	}
	return doc, nil
}

// fetchAll fetches every document in parallel and returns them in input order.
// The first failure cancels the remaining fetches.
func fetchAll(ctx context.Context, f Fetcher, ds []domain.ServiceDescriptor) ([]Document, error) {
	docs := make([]Document, len(ds))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range ds {
		g.Go(func() error {
			doc, err := f.Fetch(gctx, d)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
