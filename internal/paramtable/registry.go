package paramtable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// RegistrySource fetches rows from a remote table registry that serves
// GET {BaseURL}/tables as a JSON document with a "rows" list.
type RegistrySource struct {
	BaseURL string
	Client  *http.Client
}

func NewRegistrySource(baseURL string) *RegistrySource {
	return &RegistrySource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *RegistrySource) Name() string { return "registry:" + s.BaseURL }

func (s *RegistrySource) Rows(ctx context.Context) ([]Row, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/tables", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tables: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch tables: registry returned %s", resp.Status)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return doc.rows(), nil
}
