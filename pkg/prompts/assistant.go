package prompts

import (
	"fmt"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// AssistantSystemMessage frames the staff-facing chat assistant.
const AssistantSystemMessage = "You are a helpful assistant for staff at a study-abroad consulting agency. " +
	"You answer questions about graduate admissions, application strategy and the student in context. " +
	"Be concise and say so when you are unsure."

// maxHistoryTurns bounds how much conversation is replayed into the prompt.
const maxHistoryTurns = 20

// BuildAssistantPrompt renders the chat prompt. client may be nil.
func BuildAssistantPrompt(client *models.Client, history []models.ChatMessage, message string) string {
	var prompt strings.Builder

	if client != nil {
		prompt.WriteString("# Student In Context\n\n")
		prompt.WriteString(ClientProfile(client))
		prompt.WriteString("\n")
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) > 0 {
		prompt.WriteString("# Conversation So Far\n\n")
		for _, m := range history {
			role := "Staff"
			if m.Role == "assistant" {
				role = "Assistant"
			}
			prompt.WriteString(fmt.Sprintf("**%s**: %s\n\n", role, strings.TrimSpace(m.Content)))
		}
	}

	prompt.WriteString("# Question\n\n")
	prompt.WriteString(strings.TrimSpace(message))
	prompt.WriteString("\n")

	return prompt.String()
}
