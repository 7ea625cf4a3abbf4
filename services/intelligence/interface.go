// Package ai reads user utterances: intent and slot extraction, and mapping a
// follow-up reply onto one of the offered slots. Every capability has a
// deterministic rules implementation and a hybrid one that asks a language
// model first and falls back to the rules.
package ai

import (
	"context"

	"bookingagent/models"
)

// Classifier is the optional language-model collaborator.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, prompt string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Extractor turns one utterance plus recent history into structured fields.
// Implementations never fail; they always return a best-effort result.
type Extractor interface {
	Extract(ctx context.Context, utterance string, history []models.Turn) models.ExtractionResult
}

// Disambiguator maps a follow-up utterance onto one of the offered
// candidates. ok is false when the choice is ambiguous.
type Disambiguator interface {
	Resolve(ctx context.Context, utterance string, candidates []models.Slot) (slot models.Slot, ok bool)
}
