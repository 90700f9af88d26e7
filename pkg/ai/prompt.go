package ai

import (
	"fmt"
	"time"
)

// BaseSystemPrompt is the persona for generic replies.
const BaseSystemPrompt = "You are an assistant that answers the user's questions about their project dashboard."

// ProjectSystemPrompt builds the instruction template for project extraction.
// The embedded dates are advisory defaults for the model when the input
// under-specifies a field; nothing downstream enforces them.
func ProjectSystemPrompt(now time.Time) string {
	start := now.Unix()
	end := now.Add(7 * 24 * time.Hour).Unix()
	return fmt.Sprintf(`You are an assistant that turns a free-text request into project metadata for a dashboard.
Extract a concise title, a one-sentence summary, and a longer content description.
Choose priority from low, medium, high, critical and category from short_term, mid_term, long_term, forever.
Dates are epoch seconds. If the request does not specify a start date use %d; if it does not specify an end date use %d.`, start, end)
}
