package overseer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DropResult is the response from POST /api/action/drop_food.
type DropResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Actor posts food drops to the API. The drop endpoint is public, so no
// credentials are carried.
type Actor struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL.
func NewActor(baseURL string) *Actor {
	return &Actor{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// DropFood sends one food drop.
func (a *Actor) DropFood(x, y int, amount float64) (*DropResult, error) {
	body, err := json.Marshal(map[string]any{
		"x":      x,
		"y":      y,
		"amount": amount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal drop: %w", err)
	}

	req, err := http.NewRequest("POST", a.BaseURL+"/api/action/drop_food", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST drop_food: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drop rejected (%d): %s", resp.StatusCode, string(respBody))
	}

	var result DropResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
