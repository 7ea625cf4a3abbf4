package ai

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookingagent/models"

	"go.uber.org/zap"
)

var (
	// Clock expressions: "2pm", "2 pm", "2:30 pm", "14:00".
	meridiemClock = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	plainClock    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	integerToken  = regexp.MustCompile(`\d+`)
	meridiemWord  = regexp.MustCompile(`\b(am|pm)\b`)

	ordinalWords = map[string]int{
		"first": 1, "1st": 1,
		"second": 2, "2nd": 2,
		"third": 3, "3rd": 3,
		"fourth": 4, "4th": 4,
		"fifth": 5, "5th": 5,
		"sixth": 6, "6th": 6,
		"seventh": 7, "7th": 7,
		"eighth": 8, "8th": 8,
		"ninth": 9, "9th": 9,
		"tenth": 10, "10th": 10,
	}
)

// HasSelectionSignal reports whether an utterance plausibly picks one of the
// offered slots: a number, a time of day, or an ordinal word.
func HasSelectionSignal(utterance string) bool {
	text := normalize(utterance)
	if integerToken.MatchString(text) || meridiemWord.MatchString(text) {
		return true
	}
	for _, w := range tokenize(text) {
		if _, ok := ordinalWords[w]; ok {
			return true
		}
		if w == "last" {
			return true
		}
	}
	return false
}

// RuleDisambiguator resolves a selection deterministically: a slot number,
// then an ordinal word, then a clock time matching a candidate start.
type RuleDisambiguator struct{}

func NewRuleDisambiguator() *RuleDisambiguator {
	return &RuleDisambiguator{}
}

func (RuleDisambiguator) Resolve(_ context.Context, utterance string, candidates []models.Slot) (models.Slot, bool) {
	if len(candidates) == 0 {
		return models.Slot{}, false
	}
	text := normalize(utterance)

	if n, ok := slotNumber(text); ok && n >= 1 && n <= len(candidates) {
		return candidates[n-1], true
	}
	if n, ok := ordinal(text, len(candidates)); ok {
		return candidates[n-1], true
	}
	clocks := clockTimes(text)
	for _, c := range candidates {
		for _, ck := range clocks {
			if ck.matches(c.Start) {
				return c, true
			}
		}
	}
	return models.Slot{}, false
}

// slotNumber returns the first integer in text that is not part of a clock
// expression.
func slotNumber(text string) (int, bool) {
	stripped := meridiemClock.ReplaceAllString(text, " ")
	stripped = plainClock.ReplaceAllString(stripped, " ")
	m := integerToken.FindString(stripped)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func ordinal(text string, n int) (int, bool) {
	for _, w := range tokenize(text) {
		if idx, ok := ordinalWords[w]; ok && idx <= n {
			return idx, true
		}
		if w == "last" {
			return n, true
		}
	}
	return 0, false
}

type clock struct {
	hour, minute int
	// meridiem is false for "14:00" or "2:00" where am/pm was not given.
	meridiem bool
}

func (c clock) matches(t time.Time) bool {
	if t.Minute() != c.minute {
		return false
	}
	if c.meridiem {
		return t.Hour() == c.hour
	}
	return t.Hour() == c.hour || (c.hour < 12 && t.Hour() == c.hour+12)
}

func clockTimes(text string) []clock {
	var out []clock
	for _, m := range meridiemClock.FindAllStringSubmatch(text, -1) {
		h, _ := strconv.Atoi(m[1])
		if h < 1 || h > 12 {
			continue
		}
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		h %= 12
		if m[3] == "pm" {
			h += 12
		}
		out = append(out, clock{hour: h, minute: minute, meridiem: true})
	}
	for _, m := range plainClock.FindAllStringSubmatch(meridiemClock.ReplaceAllString(text, " "), -1) {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h > 23 || minute > 59 {
			continue
		}
		out = append(out, clock{hour: h, minute: minute})
	}
	return out
}

// HybridDisambiguator asks the classifier for a slot number and falls back to
// the rules when the answer is unclear, out of range, or missing.
type HybridDisambiguator struct {
	Classifier Classifier
	Fallback   Disambiguator
	Timeout    time.Duration
	Logger     *zap.Logger
}

func NewHybridDisambiguator(classifier Classifier, timeout time.Duration, logger *zap.Logger) *HybridDisambiguator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridDisambiguator{
		Classifier: classifier,
		Fallback:   NewRuleDisambiguator(),
		Timeout:    timeout,
		Logger:     logger,
	}
}

func (d *HybridDisambiguator) Resolve(ctx context.Context, utterance string, candidates []models.Slot) (models.Slot, bool) {
	if len(candidates) == 0 {
		return models.Slot{}, false
	}
	if d.Classifier != nil {
		if n, ok := d.pick(ctx, utterance, candidates); ok {
			return candidates[n-1], true
		}
	}
	return d.Fallback.Resolve(ctx, utterance, candidates)
}

func (d *HybridDisambiguator) pick(ctx context.Context, utterance string, candidates []models.Slot) (int, bool) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	raw, err := d.Classifier.Classify(ctx, buildSelectionPrompt(utterance, candidates))
	if err != nil {
		d.Logger.Debug("disambiguator: classifier failed, using rules", zap.Error(err))
		return 0, false
	}
	n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(raw), ".`\"'"))
	if err != nil || n < 1 || n > len(candidates) {
		d.Logger.Debug("disambiguator: unusable classifier answer", zap.String("answer", raw))
		return 0, false
	}
	return n, true
}
