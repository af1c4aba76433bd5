package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
)

// client talks to the cragrank HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

type apiError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Msg)
}

func (c *client) do(ctx context.Context, method, path, contentType string, body []byte, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return resp.StatusCode, apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
	return err
}

func (c *client) addCompetitions(ctx context.Context, definition []byte) error {
	_, err := c.do(ctx, http.MethodPost, "/competitions", "application/yaml", definition, nil)
	return err
}

type resultBody struct {
	SubmissionID string `json:"submissionId"`
	BoulderID    int64  `json:"boulderId"`
	Try          bool   `json:"try,omitempty"`
	Top          *bool  `json:"top,omitempty"`
	Zone         *bool  `json:"zone,omitempty"`
}

func (c *client) submit(ctx context.Context, sub attempt.Submission) (types.Receipt, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(resultBody{
		SubmissionID: sub.ID,
		BoulderID:    int64(sub.BoulderID),
		Try:          sub.Attempt.Try,
		Top:          sub.Attempt.Top,
		Zone:         sub.Attempt.Zone,
	})
	if err != nil {
		return types.Receipt{}, fmt.Errorf("encode submission: %w", err)
	}
	path := fmt.Sprintf("/rounds/%d/groups/%d/climbers/%d/results", sub.RoundID, sub.GroupID, sub.ClimberID)
	var receipt types.Receipt
	_, err = c.do(ctx, http.MethodPost, path, "application/json", body, &receipt)
	return receipt, err
}

func (c *client) groupRankings(ctx context.Context, id model.GroupID) (ranking.Snapshot, error) {
	var snap ranking.Snapshot
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/rankings", id), "", nil, &snap)
	return snap, err
}

func (c *client) overallRankings(ctx context.Context, id model.CompetitionID, cat model.Category) ([]types.RankEntry, error) {
	q := url.Values{"category": {cat.Name}, "sex": {string(cat.Sex)}}
	var out struct {
		Rankings []types.RankEntry `json:"rankings"`
	}
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/competitions/%d/rankings?%s", id, q.Encode()), "", nil, &out)
	return out.Rankings, err
}
