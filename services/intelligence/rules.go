package ai

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"bookingagent/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	bookingWords = wordSet("book", "booking", "booked", "schedule", "scheduling", "reserve",
		"appointment", "appointments", "meeting", "meetings", "call")
	availabilityWords = wordSet("available", "availability", "free", "slot", "slots", "time", "times", "openings")
	affirmationWords  = wordSet("yes", "yep", "yeah", "confirm", "confirmed", "ok", "okay", "sure", "perfect", "great")
	affirmationPhrase = regexp.MustCompile(`\b(sounds good|go ahead|do it|that works|works for me)\b`)
)

// Date patterns in priority order; the first one that matches wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btomorrow\b`),
	regexp.MustCompile(`\btoday\b`),
	regexp.MustCompile(`\bnext week\b`),
	regexp.MustCompile(`\bthis week\b`),
	regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	numericDate,
	regexp.MustCompile(`\bnext \w+day\b`),
}

var numericDate = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}\b`)

// Time patterns in priority order. Ranges come first since they contain a
// clock time themselves.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bbetween\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?\s*(?:and|to|-)\s*\d{1,2}(?::\d{2})?\s*(?:am|pm)?`),
	regexp.MustCompile(`\b\d{1,2}\s*-\s*\d{1,2}\s*(?:am|pm)\b`),
	regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:am|pm)?`),
	regexp.MustCompile(`\b\d{1,2}\s*(?:am|pm)\b`),
	regexp.MustCompile(`\b(?:morning|afternoon|evening)\b`),
}

var (
	// The number must not continue a longer number or decimal ("1.5 hours").
	durationPattern = regexp.MustCompile(`(?:^|[^\d.])(\d+(?:\.\d+)?)\s*-?\s*(hours?|hrs?|minutes?|mins?)\b`)
	halfHourPattern = regexp.MustCompile(`\bhalf(?: an)? hour\b`)
	anHourPattern   = regexp.MustCompile(`\b(?:an|one) hour\b`)

	meetingTypePattern = regexp.MustCompile(`\b(call|meeting|appointment|interview|consultation|demo)\b`)
	urgentPattern      = regexp.MustCompile(`\b(urgent|urgently|asap|as soon as possible|immediately|emergency)\b`)
	flexiblePattern    = regexp.MustCompile(`\b(flexible|whenever|any ?time|no rush)\b`)

	namePattern = regexp.MustCompile(`\b(?:my name is|i'm|i am|call me)\s+([a-z][a-z'-]*)`)
)

// Words that follow "i'm" or "call me" without being a name.
var notNames = wordSet("a", "an", "the", "at", "on", "in", "around", "back", "free", "available",
	"busy", "looking", "interested", "trying", "wondering", "hoping", "ready", "good", "fine", "ok",
	"okay", "not", "sure", "just", "also", "so", "very", "really", "here", "going", "thinking",
	"tomorrow", "today", "tonight", "next", "this", "later", "after", "before", "anytime", "whenever",
	"flexible", "sorry", "glad", "happy", "afraid", "new", "calling")

// RuleExtractor is the deterministic extractor. It is always available and
// returns identical results for identical input.
type RuleExtractor struct{}

func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

func (RuleExtractor) Extract(_ context.Context, utterance string, _ []models.Turn) models.ExtractionResult {
	text := normalize(utterance)
	duration, specified := ExtractDuration(text)
	return models.ExtractionResult{
		Intent:            ClassifyIntent(text),
		Date:              ExtractDate(text),
		Time:              ExtractTime(text),
		MeetingType:       ExtractMeetingType(text),
		Duration:          duration,
		DurationSpecified: specified,
		Urgency:           ExtractUrgency(text),
		UserName:          CaptureName(utterance),
		Source:            "rules",
	}
}

// ClassifyIntent applies keyword priority: booking, then availability, then
// affirmation, defaulting to book.
func ClassifyIntent(utterance string) models.Intent {
	text := normalize(utterance)
	words := tokenize(text)
	switch {
	case containsAny(words, bookingWords):
		return models.IntentBook
	case containsAny(words, availabilityWords):
		return models.IntentCheckAvailability
	case containsAny(words, affirmationWords) || affirmationPhrase.MatchString(text):
		return models.IntentConfirm
	default:
		return models.IntentBook
	}
}

func ExtractDate(utterance string) string {
	text := normalize(utterance)
	for _, p := range datePatterns {
		if p == numericDate {
			if m := numericDateMatch(text); m != "" {
				return m
			}
			continue
		}
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// numericDateMatch skips "2-4 pm" style hour ranges that look like dates.
func numericDateMatch(text string) string {
	for _, loc := range numericDate.FindAllStringIndex(text, -1) {
		rest := strings.TrimLeft(text[loc[1]:], " ")
		if strings.HasPrefix(rest, "am") || strings.HasPrefix(rest, "pm") {
			continue
		}
		return text[loc[0]:loc[1]]
	}
	return ""
}

func ExtractTime(utterance string) string {
	text := normalize(utterance)
	for _, p := range timePatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// ExtractDuration finds a stated meeting length. Fractional hours are
// rounded to the minute. It returns the default and false when nothing usable
// was stated, including lengths over MaxDuration.
func ExtractDuration(utterance string) (int, bool) {
	text := normalize(utterance)
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		if n, ok := durationMinutes(m[1], strings.HasPrefix(m[2], "h")); ok {
			return n, true
		}
		return models.DefaultDuration, false
	}
	if halfHourPattern.MatchString(text) {
		return 30, true
	}
	if anHourPattern.MatchString(text) {
		return 60, true
	}
	return models.DefaultDuration, false
}

func durationMinutes(number string, hours bool) (int, bool) {
	f, err := strconv.ParseFloat(number, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	if hours {
		f *= 60
	}
	if f > models.MaxDuration {
		return 0, false
	}
	n := int(math.Round(f))
	return n, n > 0
}

// ParseDurationField reads a classifier duration field such as "30min",
// "1 hour" or a bare number of minutes.
func ParseDurationField(field string) (int, bool) {
	text := normalize(field)
	if text == "" {
		return models.DefaultDuration, false
	}
	if _, err := strconv.Atoi(text); err == nil {
		if n, ok := durationMinutes(text, false); ok {
			return n, true
		}
		return models.DefaultDuration, false
	}
	return ExtractDuration(text)
}

func ExtractMeetingType(utterance string) string {
	return meetingTypePattern.FindString(normalize(utterance))
}

func ExtractUrgency(utterance string) models.Urgency {
	text := normalize(utterance)
	switch {
	case urgentPattern.MatchString(text):
		return models.UrgencyUrgent
	case flexiblePattern.MatchString(text):
		return models.UrgencyFlexible
	default:
		return models.UrgencyNormal
	}
}

// CaptureName looks for a self-introduction and returns the introduced name
// title-cased, or "" when there is none.
func CaptureName(utterance string) string {
	text := normalize(utterance)
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimRight(m[1], "'-")
		if _, skip := notNames[name]; skip {
			continue
		}
		// Casers carry state, so each call gets its own.
		return cases.Title(language.English).String(name)
	}
	return ""
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func containsAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
