package export

import (
	"fmt"
	"strings"
)

// MarkdownExporter renders a readable keep-in-touch report.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Rekindle report (%s)\n\n", data.GeneratedAt.Format("2006-01-02"))

	if len(data.Reminders) > 0 {
		b.WriteString("## Reach out\n\n")
		for _, r := range data.Reminders {
			fmt.Fprintf(&b, "- **%s**: %s\n", r.ContactName, r.Suggestion)
		}
		b.WriteString("\n")
	}

	if len(data.Recommendations) > 0 {
		b.WriteString("## Export a fresh chat\n\n")
		for _, r := range data.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Contacts\n\n")
	if len(data.Contacts) == 0 {
		b.WriteString("_No contacts yet._\n")
		return b.String(), nil
	}
	b.WriteString("| Name | Priority | Last contact | Reminder | Messages |\n")
	b.WriteString("|------|----------|--------------|----------|----------|\n")
	for _, r := range data.Contacts {
		last := "never"
		if r.DaysSinceLastContact >= 0 {
			last = fmt.Sprintf("%d days ago", r.DaysSinceLastContact)
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %d |\n",
			escapeCell(r.Contact.Name), r.Contact.PriorityLevel, last, r.Status, r.Messages)
	}
	b.WriteString("\n")

	for _, r := range data.Contacts {
		if r.Suggestion == nil {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", r.Contact.Name)
		if len(r.Contact.Interests) > 0 {
			fmt.Fprintf(&b, "Interests: %s\n\n", strings.Join(r.Contact.Interests, ", "))
		}
		fmt.Fprintf(&b, "> %s\n\n", r.Suggestion.Text)
	}
	return b.String(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
