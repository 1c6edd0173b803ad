package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wheres-my-table/internal/models"
)

// Client talks to the table service the way any external client would. The
// simulation never touches the registry or the store directly.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL, e.g.
// "http://localhost:9000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Meals fetches the meal catalog.
func (c *Client) Meals(ctx context.Context) ([]models.Meal, error) {
	var resp models.MealsResponse
	if err := c.do(ctx, http.MethodGet, "/meals", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Meals, nil
}

// Table fetches the table's current state.
func (c *Client) Table(ctx context.Context, tableID models.TableID) (*models.TableStatus, error) {
	var status models.TableStatus
	path := fmt.Sprintf("/table/%d", tableID)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PlaceOrder places an order for a meal on a table.
func (c *Client) PlaceOrder(ctx context.Context, tableID models.TableID, mealID models.MealID) (*models.Order, error) {
	var resp models.OrderResponse
	path := fmt.Sprintf("/table/%d/meal/%d", tableID, mealID)
	if err := c.do(ctx, http.MethodPut, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// AdvanceTable asks the service to move the table to the given state.
func (c *Client) AdvanceTable(ctx context.Context, tableID models.TableID, next models.TableState) (*models.TableStatus, error) {
	body, err := json.Marshal(models.AdvanceTableRequest{State: string(next)})
	if err != nil {
		return nil, err
	}

	var status models.TableStatus
	path := fmt.Sprintf("/table/%d/state", tableID)
	if err := c.do(ctx, http.MethodPost, path, body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do performs one request and decodes the response into out. Non-2xx
// responses are turned into errors carrying the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
