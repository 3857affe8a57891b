package ai

import (
	"fmt"
	"strings"
)

const (
	TagMaxTokens     = 30
	SummaryMaxTokens = 512
	StandupMaxTokens = 300
)

// DayEntries is one day's task contents as fed into a prompt.
type DayEntries struct {
	Date  string
	Tasks []string
}

// TagRequest asks for 1-3 short tags for a single task.
func TagRequest(content string) Request {
	return Request{
		Prompt: "Generate 1 to 3 short tags categorizing this work log entry. " +
			"Reply with only the tags separated by commas, like: #BugFix, #Frontend\n\n" +
			"Entry: " + content + "\n\nTags:",
		MaxTokens:   TagMaxTokens,
		Temperature: 0.3,
	}
}

// SummaryRequest asks for a report over days, naming the days in missing
// verbatim as having no recorded work.
func SummaryRequest(days []DayEntries, missing []string) Request {
	var b strings.Builder
	b.WriteString("Summarize the following work logs into a concise weekly report highlighting key achievements and progress:\n\n")
	writeDays(&b, days)

	if len(missing) > 0 {
		fmt.Fprintf(&b, "No work was logged on these days: %s. Mention these days explicitly in the report.\n\n",
			strings.Join(missing, ", "))
	}
	b.WriteString("Summary:")

	return Request{Prompt: b.String(), MaxTokens: SummaryMaxTokens, Temperature: 0.7}
}

// StandupRequest asks for a Yesterday/Today/Blockers update.
func StandupRequest(previous, today *DayEntries) Request {
	var b strings.Builder
	b.WriteString("Write a short daily standup update in three sections: Yesterday, Today, Blockers. " +
		"Use only the work below; write \"None\" for Blockers unless one is mentioned.\n\n")
	if previous != nil {
		b.WriteString("Previous work day:\n")
		writeDays(&b, []DayEntries{*previous})
	}
	if today != nil {
		b.WriteString("Today so far:\n")
		writeDays(&b, []DayEntries{*today})
	}
	b.WriteString("Standup:")

	return Request{Prompt: b.String(), MaxTokens: StandupMaxTokens, Temperature: 0.5}
}

func writeDays(b *strings.Builder, days []DayEntries) {
	for _, d := range days {
		fmt.Fprintf(b, "Date: %s\nTasks: %s\n\n", d.Date, strings.Join(d.Tasks, ", "))
	}
}
