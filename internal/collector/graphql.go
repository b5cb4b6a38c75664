package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/orgraph/orgraph/internal/errors"
)

const graphqlEndpoint = "https://api.github.com/graphql"

// gqlClient executes GitHub GraphQL queries over an authenticated
// http.Client.
type gqlClient struct {
	httpClient *http.Client
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// query executes one GraphQL query and unmarshals the data payload into
// result.
func (c *gqlClient) query(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	reqBody := gqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", graphqlEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return apperrors.NewRateLimitedError("graphql rate limit exhausted, resets at " + resp.Header.Get("X-RateLimit-Reset"))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github GraphQL error %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp gqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return apperrors.NewMalformedError("failed to parse graphql response", err)
	}

	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("graphql errors: %v", gqlResp.Errors)
	}

	if err := json.Unmarshal(gqlResp.Data, result); err != nil {
		return apperrors.NewMalformedError("failed to parse graphql data", err)
	}
	return nil
}
