package suggest

import (
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are an AI assistant helping an introverted user maintain social connections. Given a WhatsApp chat history with a contact, perform the following tasks:

1. Identify the date of the last interaction (most recent message) in YYYY-MM-DD format.
2. Extract key topics, interests, or events discussed in the most recent 20 messages. Look for recurring themes (mentioned at least twice) such as hobbies, events, or emotions. Ignore generic greetings (e.g. "Hi", "How are you").
3. Suggest a conversation starter to reconnect with the contact, based on the context and relationship type (e.g. friend, family). The suggestion should:
   - Reference a specific topic or event from the chat history.
   - Be friendly, concise (at most 20 words), and low-pressure, suitable for an introverted user.
   - Use a casual tone for friends (e.g. "Hey, how's that hiking trip going?") and a warmer tone for family (e.g. "Hi Mom, how's the garden coming along?").
   - Encourage a response without being demanding.
   - If the chat history has fewer than 5 messages or lacks clear topics, suggest a generic but appropriate reconnect message (e.g. "Hey [name], been a while! What's new?" for friends; "Hi [name], just checking in, how's everything?" for family).
4. Rate the overall sentiment (positive, neutral or negative), the relationship strength from 1 to 10, and how often the two talk (frequent, regular, occasional or rare).
5. Add short context notes, the conversation themes, and a one-line preview of the latest message.`

const analysisOutputFormat = `Output in JSON format:
{
  "last_interaction_date": "YYYY-MM-DD",
  "topics": ["topic1", "topic2"],
  "suggestion": "Suggested message text",
  "sentiment": "positive|neutral|negative",
  "relationship_strength": 1-10,
  "interaction_frequency": "frequent|regular|occasional|rare",
  "context_notes": "short notes",
  "conversation_themes": ["theme1"],
  "message_preview": "latest message preview"
}`

const genericSystemPrompt = `You are an AI assistant helping an introverted user maintain social connections. Generate a friendly, low-pressure conversation starter message for a contact.`

const genericOutputFormat = `Output in JSON format:
{
  "message": "Suggested message text",
  "context_relevance": "why this fits the contact",
  "tone_analysis": "the tone of the message",
  "alternative_options": ["alternative 1", "alternative 2"]
}`

const historyTimeLayout = "2006-01-02 15:04"

// formatHistoryLine renders one message the way it is shown to the model.
func formatHistoryLine(m ChatMessage) string {
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format(historyTimeLayout), m.Sender, m.Content)
}

func analysisUserPrompt(history, contactName, relationshipType string) string {
	return fmt.Sprintf("Chat History:\n%s\n\nContact Name: %s\nRelationship Type: %s\n\n%s",
		history, contactName, relationshipType, analysisOutputFormat)
}

func genericUserPrompt(req GenericRequest, relationshipType string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I need to reconnect with %s who is my %s.", req.ContactName, relationshipType)
	if len(req.Interests) > 0 {
		fmt.Fprintf(&sb, " They are interested in: %s.", strings.Join(req.Interests, ", "))
	}
	sb.WriteString("\n\nPlease suggest a friendly, casual conversation starter that is concise (under 20 words) and doesn't feel demanding. ")
	sb.WriteString("The message should be something an introverted person would feel comfortable sending.\n\n")
	sb.WriteString(genericOutputFormat)
	return sb.String()
}
