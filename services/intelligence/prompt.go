package ai

import (
	"fmt"
	"strings"

	"bookingagent/models"
)

// historyWindow is how many earlier turns the classifier sees.
const historyWindow = 3

const extractionTemplate = `You are an AI scheduling assistant. Analyze this conversation:

%s

Latest message: "%s"

Extract:
1. Intent: book/check_availability/confirm/select_slot/casual_chat/reschedule
2. Date preference (specific date, relative like 'tomorrow', or none)
3. Time preference (specific time, relative like 'afternoon', or none)
4. Meeting type (call, meeting, appointment, or none)
5. Duration preference (if mentioned, or none)
6. Urgency level (urgent, flexible, or normal)

Format: intent|date|time|type|duration|urgency
Example: book|next friday|2pm|call|30min|normal
Respond with the single formatted line only.`

const selectionTemplate = `User said: "%s"

Available slots:
%s

Which slot number (1-%d) did they select? Respond with just the number, or 0 if unclear.`

func buildExtractionPrompt(utterance string, history []models.Turn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		who := "User"
		if t.Speaker == models.SpeakerAgent {
			who = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", who, t.Text))
	}
	conversation := strings.Join(lines, "\n")
	if conversation == "" {
		conversation = "(no earlier messages)"
	}
	return fmt.Sprintf(extractionTemplate, conversation, utterance)
}

func buildSelectionPrompt(utterance string, candidates []models.Slot) string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%d. %s", i+1, c.Label())
	}
	return fmt.Sprintf(selectionTemplate, utterance, strings.Join(lines, "\n"), len(candidates))
}
