package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"steppetalk/internal/domain"
)

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentPart `json:"content"`
}

type responsesReply struct {
	OutputText string       `json:"output_text"`
	Output     []outputItem `json:"output"`
}

type textShape int

const (
	shapeEmpty textShape = iota
	shapeAggregated
	shapeChunks
)

// generatedText is the text payload of a Responses API reply. The API
// either aggregates it into output_text or only lists message chunks.
type generatedText struct {
	shape  textShape
	text   string
	chunks []string
}

func (r responsesReply) generated() generatedText {
	if strings.TrimSpace(r.OutputText) != "" {
		return generatedText{shape: shapeAggregated, text: r.OutputText}
	}

	var chunks []string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				chunks = append(chunks, part.Text)
			}
		}
	}
	if len(chunks) == 0 {
		return generatedText{shape: shapeEmpty}
	}
	return generatedText{shape: shapeChunks, chunks: chunks}
}

func extractText(g generatedText) string {
	switch g.shape {
	case shapeAggregated:
		return strings.TrimSpace(g.text)
	case shapeChunks:
		return strings.TrimSpace(strings.Join(g.chunks, ""))
	}
	return ""
}

func (c *Client) generate(ctx context.Context, op string, input []inputMessage) (string, error) {
	bodyBytes, err := json.Marshal(responsesRequest{Model: c.cfg.TextModel, Input: input})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.text.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Op: op, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var reply responsesReply
	if err = json.Unmarshal(respBody, &reply); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return extractText(reply.generated()), nil
}
