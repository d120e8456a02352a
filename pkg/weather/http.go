package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cuaderno/pkg/metrics"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// getJSON fetches url and records the outcome under service.
func getJSON(ctx context.Context, service, url string, header map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		metrics.Upstream(service, err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("%s: status %d", service, resp.StatusCode)
		metrics.Upstream(service, err)
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	metrics.Upstream(service, err)
	return b, err
}
