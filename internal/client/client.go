// Package client is a thin HTTP client for a running ad-console gateway,
// used by the import command.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImportRequest is the body of POST /api/users/import.
type ImportRequest struct {
	CSV      string `json:"csv"`
	Password string `json:"password"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// ImportAccepted is the 202 response for an accepted import.
type ImportAccepted struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

// DryRunResult is the 200 response for a validate-only import.
type DryRunResult struct {
	ValidRows int `json:"valid_rows"`
}

// JobSnapshot mirrors the gateway's batch job status body.
type JobSnapshot struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
	Done      bool   `json:"done"`
	Result    *struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Succeeded []struct {
			Identifier string `json:"identifier"`
		} `json:"success"`
		Errors []struct {
			Identifier string `json:"identifier"`
			Message    string `json:"errorMessage"`
		} `json:"errors"`
		Canceled bool `json:"canceled,omitempty"`
	} `json:"result,omitempty"`
}

// ValidationError is returned when the gateway rejects the CSV with a
// 400 and a list of per-row errors.
type ValidationError struct {
	Message string
	Errors  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%d errors)", e.Message, len(e.Errors))
}

// Client talks to one gateway base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the gateway at baseURL, e.g. "http://localhost:8420".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Import submits CSV content for bulk user creation. On validation
// failure the error is a *ValidationError carrying the row errors.
// With dryRun set the returned job ID is empty and Total holds the
// validated row count.
func (c *Client) Import(req ImportRequest) (ImportAccepted, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ImportAccepted{}, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/users/import", "application/json", bytes.NewReader(body))
	if err != nil {
		return ImportAccepted{}, fmt.Errorf("post import: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImportAccepted{}, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		var acc ImportAccepted
		if err := json.Unmarshal(data, &acc); err != nil {
			return ImportAccepted{}, fmt.Errorf("decode response: %w", err)
		}
		return acc, nil
	case http.StatusOK:
		var dry DryRunResult
		if err := json.Unmarshal(data, &dry); err != nil {
			return ImportAccepted{}, fmt.Errorf("decode response: %w", err)
		}
		return ImportAccepted{Total: dry.ValidRows}, nil
	case http.StatusBadRequest:
		var envelope struct {
			Error  string   `json:"error"`
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
			return ImportAccepted{}, &ValidationError{Message: envelope.Error, Errors: envelope.Errors}
		}
		return ImportAccepted{}, fmt.Errorf("gateway rejected import: %s", string(data))
	default:
		return ImportAccepted{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}
}

// JobStatus fetches the snapshot for one batch job.
func (c *Client) JobStatus(id string) (JobSnapshot, error) {
	resp, err := c.http.Get(c.baseURL + "/api/batch/" + id)
	if err != nil {
		return JobSnapshot{}, fmt.Errorf("get job status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return JobSnapshot{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}

	var snap JobSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return JobSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Health checks the gateway health endpoint.
func (c *Client) Health() error {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}
