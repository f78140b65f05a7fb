package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-character-pipeline/internal/model"
)

// ------------------- Character Source -------------------

// HTTPError is returned when the character endpoint answers with a
// non-2xx status. The response body is not consulted in that case.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status code: %d", e.URL, e.StatusCode)
}

// CharacterSource fetches character records from a remote JSON endpoint.
type CharacterSource struct {
	endpoint string
	client   *http.Client
}

func NewCharacterSource(endpoint string) *CharacterSource {
	return &CharacterSource{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch issues a single GET against the endpoint and returns the records
// under the "results" key. No retries, no pagination follow-through: only
// the first page is ever consulted.
func (s *CharacterSource) Fetch(ctx context.Context) ([]model.Character, error) {
	fmt.Printf("🌐 GET JSON: %s\n", s.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET characters: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: s.endpoint}
	}

	var page model.CharacterPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for i, c := range page.Results {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("malformed record at index %d: %w", i, err)
		}
	}

	fmt.Printf("🌐 Fetch done: %d records read from %s\n", len(page.Results), s.endpoint)
	return page.Results, nil
}
