// Package draft is the boundary to the external AI service that turns
// free-form briefs into a structured quote draft. The core never trusts the
// service's arithmetic; the pricing engine recomputes the authoritative
// price from the extracted dimensions.
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrExternal wraps every failure of the draft service so callers can
// surface it without inspecting transport details. The original user input
// is never consumed on failure.
var ErrExternal = errors.New("el servicio de borradores no está disponible")

// Draft is the structured output of the external analysis.
type Draft struct {
	CampaignName  string  `json:"campaignName"`
	Description   string  `json:"description"`
	MaterialName  string  `json:"materialName"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Quantity      int     `json:"quantity"`
	EstimatedCost int64   `json:"estimatedCost"`
}

// Client calls the draft extraction API.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Enabled reports whether a draft service is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiURL != ""
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    Draft  `json:"data"`
}

// Extract sends the brief to the service and returns the structured draft.
// Every failure path returns an error wrapping ErrExternal.
func (c *Client) Extract(ctx context.Context, text string) (Draft, error) {
	if !c.Enabled() {
		return Draft{}, fmt.Errorf("%w: sin configurar", ErrExternal)
	}

	payload, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return Draft{}, fmt.Errorf("%w: serializar solicitud: %v", ErrExternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/extract", bytes.NewBuffer(payload))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: crear solicitud: %v", ErrExternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrExternal, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: leer respuesta: %v", ErrExternal, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Draft{}, fmt.Errorf("%w: estado %d", ErrExternal, resp.StatusCode)
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Draft{}, fmt.Errorf("%w: respuesta inválida: %v", ErrExternal, err)
	}
	if result.Code != 0 {
		return Draft{}, fmt.Errorf("%w: %s", ErrExternal, result.Message)
	}

	return result.Data, nil
}
