// Package sentiment classifies financial headlines as positive, negative or neutral
// using a hosted text-classification model.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// Prediction is the winning label and its score for one text.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels a single piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// HTTPClassifier calls an inference endpoint speaking the Hugging Face
// text-classification format: {"inputs": text} in, [[{label, score}, ...]] out.
// One instance is created at startup and shared by all requests.
type HTTPClassifier struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewHTTPClassifier creates a classifier for endpoint. token may be empty for
// unauthenticated endpoints.
func NewHTTPClassifier(endpoint, token string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Classify returns the highest scoring label for text, normalised to lower case.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to encode classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	predictions, err := decodePredictions(data)
	if err != nil {
		return Prediction{}, err
	}
	return best(predictions)
}

// decodePredictions accepts both the batched [[...]] and flat [...] response shapes.
func decodePredictions(data []byte) ([]Prediction, error) {
	var batched [][]Prediction
	if err := json.Unmarshal(data, &batched); err == nil {
		if len(batched) == 0 {
			return nil, fmt.Errorf("classifier returned no predictions")
		}
		return batched[0], nil
	}

	var flat []Prediction
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	return flat, nil
}

func best(predictions []Prediction) (Prediction, error) {
	if len(predictions) == 0 {
		return Prediction{}, fmt.Errorf("classifier returned no predictions")
	}

	top := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > top.Score {
			top = p
		}
	}

	label, err := NormalizeLabel(top.Label)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: label, Score: top.Score}, nil
}

// NormalizeLabel maps model specific label spellings onto the three sentiment labels.
func NormalizeLabel(label string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "pos", "bullish":
		return model.SentimentPositive, nil
	case "negative", "neg", "bearish":
		return model.SentimentNegative, nil
	case "neutral", "neu":
		return model.SentimentNeutral, nil
	default:
		return "", fmt.Errorf("unknown sentiment label %q", label)
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
