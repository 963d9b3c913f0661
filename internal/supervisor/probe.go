package supervisor

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openeduhub/kidra/internal/utils"
)

// Probe performs a single GET against a ping address.
// Any 2xx is ready; transport errors and other statuses are returned as errors.
func Probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping returned HTTP %d", resp.StatusCode)
	}
	return nil
}
