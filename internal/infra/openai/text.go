package openai

import (
	"context"
	"fmt"
	"time"

	"steppetalk/internal/domain"
	"steppetalk/internal/textnorm"
)

const translatePrompt = "You are a translation engine. " +
	"Translate faithfully and naturally. " +
	"Return ONLY the translated text, no quotes, no explanations."

var modeHints = map[domain.ChatMode]string{
	domain.ModeAssistant: "Be a helpful bilingual assistant.",
	domain.ModeTourist:   "Be a travel helper. Keep answers short and practical.",
	domain.ModeLearning:  "Be a language tutor. Correct mistakes gently and give a better phrasing.",
}

func (c *Client) Translate(ctx context.Context, text string, source, target domain.Lang) (result string, err error) {
	if !c.enabled {
		return fmt.Sprintf("[%s->%s] %s", source, target, text), nil
	}
	defer func(start time.Time) { c.observe("translate", start, err) }(time.Now())

	user := fmt.Sprintf("Source language: %s\nTarget language: %s\nText:\n%s", source.Name(), target.Name(), text)

	out, err := c.generate(ctx, "translate", []inputMessage{
		{Role: "system", Content: translatePrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return "", err
	}
	return textnorm.Clean(out), nil
}

// Chat answers text in assistantLang. Only the most recent 2*MaxTurns turns
// of history are sent, oldest first.
func (c *Client) Chat(ctx context.Context, history []domain.Turn, text string, userLang, assistantLang domain.Lang, mode domain.ChatMode) (result string, err error) {
	if !c.enabled {
		return "(demo) Я понял: " + text, nil
	}
	defer func(start time.Time) { c.observe("chat", start, err) }(time.Now())

	out, err := c.generate(ctx, "chat", c.chatInput(history, text, userLang, assistantLang, mode))
	if err != nil {
		return "", err
	}
	return textnorm.Clean(out), nil
}

func (c *Client) chatInput(history []domain.Turn, text string, userLang, assistantLang domain.Lang, mode domain.ChatMode) []inputMessage {
	hint, ok := modeHints[mode]
	if !ok {
		hint = "Be a helpful assistant."
	}
	system := fmt.Sprintf("%s\nThe user writes in %s.\nYour reply language MUST be %s.\nKeep it concise.\n",
		hint, userLang.Name(), assistantLang.Name())

	if window := c.cfg.MaxTurns * 2; len(history) > window {
		history = history[len(history)-window:]
	}

	input := make([]inputMessage, 0, len(history)+2)
	input = append(input, inputMessage{Role: "system", Content: system})
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}
		role := string(turn.Role)
		if role == "" {
			role = string(domain.RoleUser)
		}
		input = append(input, inputMessage{Role: role, Content: turn.Text})
	}
	return append(input, inputMessage{Role: string(domain.RoleUser), Content: text})
}
