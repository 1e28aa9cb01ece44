// Package estimation talks to the external prediction service that
// estimates when a pollination or germination attempt will complete.
// The model itself is opaque: this client only ships species data out
// and predictions back.
package estimation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Arletteportilla/PoliGer/internal/platform/http"
	"github.com/Arletteportilla/PoliGer/models"
)

// Client calls the estimation service over HTTP.
type Client struct {
	http    *platformhttp.Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewClient creates an estimation client. timeout bounds each request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        timeout,
			RequestsPerSec: 5,
		}),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  log.With().Str("component", "estimation_client").Logger(),
	}
}

type estimateResponse struct {
	PredictedDate string  `json:"predicted_date"`
	PredictedDays int     `json:"predicted_days"`
	Confidence    float64 `json:"confidence"`
	Method        string  `json:"method"`
	Status        string  `json:"status,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// Estimate requests a completion prediction for a new record.
func (c *Client) Estimate(ctx context.Context, req models.EstimateRequest) (*models.Prediction, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding estimate request: %w", err)
	}

	url := c.baseURL + "/api/predictions/estimate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug().Str("species", req.Species).Str("type", string(req.Type)).Msg("Requesting estimate")

	resp, err := c.http.DoRequest(ctx, httpReq)
	if err != nil {
		return nil, &models.TransportError{Op: "estimate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransportError{Op: "estimate", Err: fmt.Errorf("reading response body: %w", err)}
	}

	var data estimateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, &models.TransportError{Op: "estimate", Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	if data.Status == "error" {
		return nil, &models.TransportError{Op: "estimate", Err: fmt.Errorf("service error: %s", data.Message)}
	}

	outcomeDate, err := time.Parse("2006-01-02", data.PredictedDate)
	if err != nil {
		return nil, &models.TransportError{Op: "estimate", Err: fmt.Errorf("bad predicted_date %q: %w", data.PredictedDate, err)}
	}

	// Confidence is a percentage; defend against out-of-range values
	// from older model versions.
	confidence := data.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	prediction := &models.Prediction{
		OutcomeDate:  outcomeDate,
		DurationDays: data.PredictedDays,
		Confidence:   confidence,
		Method:       data.Method,
	}

	c.logger.Debug().
		Str("predicted_date", data.PredictedDate).
		Int("predicted_days", data.PredictedDays).
		Float64("confidence", confidence).
		Msg("Estimate received")

	return prediction, nil
}
