// Package chat proxies the site's AI assistant to the Gemini API, keeping the
// credential on the server side.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oladoye/sitesync/pkg/model"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

const systemPrompt = `You are a helpful AI assistant for Faithjesus Oladoye's website, a Christian author, content creator, and pastor.

Your role is to:
- Answer questions about faith, Christianity, and biblical topics
- Provide spiritual guidance and encouragement
- Recommend Christian books and resources
- Discuss ministry and leadership topics
- Offer prayer guidance and support

Always respond with:
- Biblical wisdom when appropriate
- Encouraging and uplifting tone
- Practical spiritual advice
- References to scripture when relevant
- Respect for different Christian denominations

Keep responses conversational, helpful, and rooted in Christian values.`

// Message is one turn of the widget's conversation history
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Gemini answers chat messages via the generateContent REST endpoint.
type Gemini struct {
	key       string
	modelName string
	endpoint  string
	client    *http.Client
}

func NewGemini(key, modelName string) (*Gemini, error) {
	if key == "" {
		return nil, errors.Wrap(model.ErrConfigurationMissing, "google AI key is not set")
	}

	if modelName == "" {
		modelName = "gemini-pro"
	}

	return &Gemini{
		key:       key,
		modelName: modelName,
		endpoint:  defaultEndpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Answer generates a reply to a message given the prior conversation turns.
func (g *Gemini) Answer(ctx context.Context, message string, history []Message) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: g.buildPrompt(message, history)}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1000,
		},
		SafetySettings: []safetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize chat request")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.modelName, g.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(model.ErrSourceUnavailable, "chat request failed: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(model.ErrSourceUnavailable, "chat service returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "failed to parse chat response")
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.Wrap(model.ErrSourceUnavailable, "chat service returned no candidates")
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gemini) buildPrompt(message string, history []Message) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)

	for _, turn := range history {
		role := "User"
		if turn.Role == "assistant" || turn.Role == "model" {
			role = "Assistant"
		}

		sb.WriteString("\n\n")
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
	}

	sb.WriteString("\n\nUser: ")
	sb.WriteString(message)

	return sb.String()
}
