// Package analyzer is an HTTP client for the audio-analysis service,
// which classifies a recording and describes its sound environment.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
)

// Client implements ports.AnalyzerClient against the analyzer's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the analyzer at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type analyzeRequest struct {
	AudioURL string `json:"audio_url"`
	TopK     int    `json:"top_k"`
}

type classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type analyzeResponse struct {
	Classifications []classification `json:"classifications"`
	Environment     struct {
		PrimaryType string `json:"primary_type"`
		Description string `json:"description"`
	} `json:"environment"`
	Transcription string `json:"transcription"`
}

// Analyze submits an audio URL and converts the classifier output into
// a pin annotation. The top-ranked label becomes the topic category;
// the environment type stands in for emotion until the analyzer grows
// a dedicated model for it.
func (c *Client) Analyze(ctx context.Context, audioURL string) (*domain.AIAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{AudioURL: audioURL, TopK: 5})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/analyze/audio", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.DependencyError{Op: "analyzer", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.DependencyError{
			Op:  "analyzer",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg),
		}
	}

	var ar analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, &domain.DependencyError{Op: "analyzer", Err: fmt.Errorf("decode: %w", err)}
	}

	analysis := &domain.AIAnalysis{
		Transcription: ar.Transcription,
		Summary:       ar.Environment.Description,
		Categories: domain.AICategories{
			Emotion: ar.Environment.PrimaryType,
		},
	}
	if len(ar.Classifications) > 0 {
		analysis.Categories.Topic = ar.Classifications[0].Label
		analysis.Categories.Confidence = ar.Classifications[0].Confidence
	}
	return analysis, nil
}
