// Package catalog holds the server-provided voice and language lists.
// Catalogs are fetched once and read-only afterwards.
package catalog

import (
	"context"
	"fmt"

	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
)

// VoicePolicy picks a default voice from a language's ordered voice list.
type VoicePolicy func(voices []domain.Voice) string

// FirstVoice is the default policy: the first voice listed for a language.
func FirstVoice(voices []domain.Voice) string {
	if len(voices) == 0 {
		return ""
	}
	return voices[0].ID
}

// Catalogs is an immutable snapshot of both remote catalogs.
type Catalogs struct {
	voices    map[string][]domain.Voice
	languages []domain.Language
}

// Fetch retrieves both catalogs from the service.
func Fetch(ctx context.Context, service ports.CatalogService) (*Catalogs, error) {
	voices, err := service.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voice catalog: %w", err)
	}
	languages, err := service.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch language catalog: %w", err)
	}
	return New(voices, languages), nil
}

// New builds a snapshot from already-decoded catalog data.
func New(voices map[string][]domain.Voice, languages []domain.Language) *Catalogs {
	copied := make(map[string][]domain.Voice, len(voices))
	for lang, list := range voices {
		copied[lang] = append([]domain.Voice(nil), list...)
	}
	return &Catalogs{
		voices:    copied,
		languages: append([]domain.Language(nil), languages...),
	}
}

// Voices returns the ordered voice list for a language code.
func (c *Catalogs) Voices(language string) []domain.Voice {
	return append([]domain.Voice(nil), c.voices[language]...)
}

// Languages returns the ordered language list.
func (c *Catalogs) Languages() []domain.Language {
	return append([]domain.Language(nil), c.languages...)
}

// DefaultVoice applies policy to the language's voice list. A nil policy
// falls back to FirstVoice.
func (c *Catalogs) DefaultVoice(language string, policy VoicePolicy) string {
	if policy == nil {
		policy = FirstVoice
	}
	return policy(c.voices[language])
}
