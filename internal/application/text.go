package application

import (
	"context"

	"steppetalk/internal/domain"
)

type TextGenerator interface {
	Translate(ctx context.Context, text string, source, target domain.Lang) (string, error)
	Chat(ctx context.Context, history []domain.Turn, text string, userLang, assistantLang domain.Lang, mode domain.ChatMode) (string, error)
}

// ProviderStatus reports whether a real provider is configured.
type ProviderStatus interface {
	Enabled() bool
}
