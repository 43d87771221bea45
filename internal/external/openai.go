package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/kjannette/goldsight-backend/internal/httputil"
	"github.com/kjannette/goldsight-backend/internal/models"
	"github.com/kjannette/goldsight-backend/internal/pricecsv"
	"github.com/kjannette/goldsight-backend/internal/prompts"
)

const DefaultModel = "gpt-4o"

var ErrNoContent = errors.New("model returned no content")

type ForecastResponse struct {
	Points  []models.PricePoint
	Summary string
}

type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the public API
	Timeout     time.Duration
	SpotPrice   float64
	AllTimeHigh float64
	Retry       httputil.RetryConfig
}

// OpenAIForecaster prompts a chat-completion model for gold price forecasts.
type OpenAIForecaster struct {
	client      *openai.Client
	model       string
	spotPrice   float64
	allTimeHigh float64
}

func NewOpenAIForecaster(opts OpenAIOptions) *OpenAIForecaster {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		}
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: httputil.NewRetryTransport(http.DefaultTransport, opts.Retry),
	}

	return &OpenAIForecaster{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		spotPrice:   opts.SpotPrice,
		allTimeHigh: opts.AllTimeHigh,
	}
}

func (f *OpenAIForecaster) Model() string {
	return f.model
}

// GenerateForecast sends the historical CSV and returns the forecast points
// and the model's reasoning summary.
func (f *OpenAIForecaster) GenerateForecast(ctx context.Context, historicalCSV string, horizon int) (*ForecastResponse, error) {
	content, err := f.complete(ctx, prompts.ForecastPrompt(historicalCSV, horizon, f.spotPrice, f.allTimeHigh), 2500)
	if err != nil {
		return nil, err
	}
	return DecodeForecastReply(content)
}

// SummarizeTrends asks for a narrative of the trends in forecastData.
func (f *OpenAIForecaster) SummarizeTrends(ctx context.Context, forecastData string) (string, error) {
	content, err := f.complete(ctx, prompts.TrendsPrompt(forecastData), 600)
	if err != nil {
		return "", err
	}
	return DecodeTrendsReply(content)
}

func (f *OpenAIForecaster) complete(ctx context.Context, userPrompt string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrNoContent
	}

	fmt.Printf("[LLM] %s replied in %s (%d tokens)\n",
		f.model, time.Since(start).Round(time.Millisecond), resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// --- reply decoding ---

type forecastReply struct {
	ForecastData json.RawMessage `json:"forecastData"`
	Summary      string          `json:"summary"`
}

type replyPoint struct {
	Date  string    `json:"date"`
	Price flexFloat `json:"price"`
}

// DecodeForecastReply accepts both reply shapes the forecast prompt has used:
// forecastData as an array of {date, price} objects, or as a CSV string.
func DecodeForecastReply(content string) (*ForecastResponse, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var reply forecastReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("parse forecast JSON: %w", err)
	}

	data := bytes.TrimSpace(reply.ForecastData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("forecast reply has no forecastData")
	}

	var points []models.PricePoint
	switch data[0] {
	case '[':
		var rows []replyPoint
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse forecastData array: %w", err)
		}
		points = make([]models.PricePoint, 0, len(rows))
		for _, r := range rows {
			points = append(points, models.PricePoint{Date: r.Date, Price: models.Round2(float64(r.Price))})
		}
	case '"':
		var csv string
		if err := json.Unmarshal(data, &csv); err != nil {
			return nil, fmt.Errorf("parse forecastData string: %w", err)
		}
		points = pricecsv.Decode(csv)
	default:
		return nil, fmt.Errorf("unexpected forecastData shape: %.40s", data)
	}

	return &ForecastResponse{Points: points, Summary: strings.TrimSpace(reply.Summary)}, nil
}

// DecodeTrendsReply returns the summary field of a JSON reply. A reply
// without JSON is taken as the summary text itself.
func DecodeTrendsReply(content string) (string, error) {
	raw, err := extractJSON(content)
	if err != nil {
		text := strings.TrimSpace(content)
		if text == "" {
			return "", ErrNoContent
		}
		return text, nil
	}

	var reply struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("parse trends JSON: %w", err)
	}
	if strings.TrimSpace(reply.Summary) == "" {
		return "", fmt.Errorf("trends reply has empty summary")
	}
	return strings.TrimSpace(reply.Summary), nil
}

func extractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response: %.80s", content)
	}
	return []byte(content[start : end+1]), nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}
