package reflect

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a careful reflection companion inside a card-based journaling app.
The user picked a card and answered a guiding question about it.
Write a short reflection (3-5 sentences) that mirrors their answer back,
names one tension or pattern you notice, and ends with a single open
question. Never give advice, diagnoses or judgements. Answer in the
language the user wrote in.`

func buildReflectionPrompt(cardTitle, question, answer string) string {
	var b strings.Builder
	if t := strings.TrimSpace(cardTitle); t != "" {
		fmt.Fprintf(&b, "Card: %s\n", t)
	}
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "Question: %s\n", q)
	}
	fmt.Fprintf(&b, "Answer: %s\n", strings.TrimSpace(answer))
	return b.String()
}
