package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookingagent/models"

	"go.uber.org/zap"
)

const extractionFields = 6

// HybridExtractor asks the classifier first and falls back to the rules on
// any failure. A nil Classifier makes it behave exactly like the rules.
type HybridExtractor struct {
	Classifier Classifier
	Fallback   Extractor
	Timeout    time.Duration
	Logger     *zap.Logger
}

func NewHybridExtractor(classifier Classifier, timeout time.Duration, logger *zap.Logger) *HybridExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridExtractor{
		Classifier: classifier,
		Fallback:   NewRuleExtractor(),
		Timeout:    timeout,
		Logger:     logger,
	}
}

func (e *HybridExtractor) Extract(ctx context.Context, utterance string, history []models.Turn) models.ExtractionResult {
	if e.Classifier != nil {
		res, err := e.classify(ctx, utterance, history)
		if err == nil {
			return res
		}
		e.Logger.Debug("extractor: classifier unusable, using rules", zap.Error(err))
	}
	return e.Fallback.Extract(ctx, utterance, history)
}

func (e *HybridExtractor) classify(ctx context.Context, utterance string, history []models.Turn) (models.ExtractionResult, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	raw, err := e.Classifier.Classify(ctx, buildExtractionPrompt(utterance, history))
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("classify: %w", err)
	}
	res, err := ParseExtraction(raw)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	// Name capture is independent of the classifier.
	res.UserName = CaptureName(utterance)
	return res, nil
}

// ParseExtraction reads the pipe-delimited classifier answer
// intent|date|time|type|duration|urgency. Fields equal to "none" or empty are
// absent.
func ParseExtraction(raw string) (models.ExtractionResult, error) {
	line := pickDelimitedLine(raw)
	parts := strings.Split(line, "|")
	if len(parts) < extractionFields {
		return models.ExtractionResult{}, fmt.Errorf("malformed classifier answer %q: want %d fields, got %d", raw, extractionFields, len(parts))
	}
	for i := range parts {
		parts[i] = field(parts[i])
	}

	intent, ok := models.ParseIntent(parts[0])
	if !ok {
		return models.ExtractionResult{}, fmt.Errorf("unknown intent %q", parts[0])
	}
	duration, specified := ParseDurationField(parts[4])

	return models.ExtractionResult{
		Intent:            intent,
		Date:              parts[1],
		Time:              parts[2],
		MeetingType:       parts[3],
		Duration:          duration,
		DurationSpecified: specified,
		Urgency:           models.ParseUrgency(parts[5]),
		Source:            "classifier",
	}, nil
}

func pickDelimitedLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`\"'")
		if strings.Contains(line, "|") {
			return line
		}
	}
	return strings.TrimSpace(raw)
}

func field(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "null" || s == "n/a" {
		return ""
	}
	return s
}
