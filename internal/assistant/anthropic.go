package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pbaille/trip/internal/domain"
)

const (
	anthropicAPI = "https://api.anthropic.com/v1/messages"
	defaultModel = "claude-sonnet-4-20250514"
)

// Client talks to the Anthropic messages API for lookups and suggestions
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

// New creates a Client. An empty model selects the default one.
func New(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	if model == "" {
		model = defaultModel
	}

	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicAPI,
		http:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Geocode resolves a Tainan spot to coordinates and a standard address.
// When address is given it takes precedence over the name.
func (c *Client) Geocode(ctx context.Context, name, address string) (domain.Location, error) {
	resp, err := c.callAPI(ctx, buildGeocodePrompt(name, address), 256)
	if err != nil {
		return domain.Location{}, fmt.Errorf("api call: %w", err)
	}
	return parseLocation(resp)
}

// Recommend suggests three nearby local picks for a day's current plan
func (c *Client) Recommend(ctx context.Context, day domain.Day, spotNames []string) (string, error) {
	resp, err := c.callAPI(ctx, buildRecommendPrompt(day, spotNames), 1024)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

func buildGeocodePrompt(name, address string) string {
	var sb strings.Builder

	sb.WriteString("Find the precise location of this place in Tainan, Taiwan. Return JSON only.\n\n")
	sb.WriteString("Place: ")
	sb.WriteString(strings.TrimSpace(name))
	sb.WriteString("\n")

	if a := strings.TrimSpace(address); a != "" {
		sb.WriteString("Address (authoritative, use it over the name): ")
		sb.WriteString(a)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(`Return a JSON object with this structure:
{"lat": 22.99, "lng": 120.20, "standardAddress": "No. 1, Example Rd, West Central District, Tainan"}

Rules:
- lat and lng are decimal degrees
- standardAddress is the full postal address in standard form

Return ONLY the JSON, no other text.`)

	return sb.String()
}

func buildRecommendPrompt(day domain.Day, spotNames []string) string {
	var sb strings.Builder

	sb.WriteString("I am planning ")
	sb.WriteString(string(day))
	sb.WriteString(" of a trip to Tainan, Taiwan.\n")

	if len(spotNames) > 0 {
		sb.WriteString("Places already planned:\n")
		for _, n := range spotNames {
			sb.WriteString("- ")
			sb.WriteString(n)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	sb.WriteString(`As a local, recommend 3 nearby places to eat or hidden spots worth a visit,
based on where the planned places are. For each include:
- the name
- why it is worth going
- roughly which district it is in

Answer in plain text, one short paragraph per recommendation.`)

	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) callAPI(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("empty response")
}

func parseLocation(resp string) (domain.Location, error) {
	resp = stripFences(resp)

	var loc domain.Location
	if err := json.Unmarshal([]byte(resp), &loc); err != nil {
		return domain.Location{}, fmt.Errorf("parse json: %w (response: %s)", err, resp)
	}
	if loc.Lat == 0 && loc.Lng == 0 {
		return domain.Location{}, fmt.Errorf("no coordinates in response: %s", resp)
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return domain.Location{}, fmt.Errorf("coordinates out of range: %v,%v", loc.Lat, loc.Lng)
	}
	loc.StandardAddress = strings.TrimSpace(loc.StandardAddress)

	return loc, nil
}

// stripFences removes a markdown code block around a JSON answer
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
