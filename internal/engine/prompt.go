package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/tablechat/internal/dataset"
)

// plannerInstructions teaches the model the plan grammar. The reply must be a
// single JSON object; the staged parser tolerates fences and surrounding
// prose anyway.
const plannerInstructions = `You translate questions about a numeric table into an analysis plan.
Respond with exactly one JSON object and no other text:

{
  "steps": [
    {"op": "filter", "column": "<name>", "cmp": "eq|ne|gt|ge|lt|le", "value": <number>},
    {"op": "select", "columns": ["<name>", ...]},
    {"op": "groupby", "by": "<name>", "aggregate": "sum|mean|median|min|max|count", "target": "<name>"},
    {"op": "sort", "column": "<name>", "descending": true|false},
    {"op": "limit", "n": <integer>},
    {"op": "derive", "name": "<new column>", "expr": "<col|number> <+|-|*|/> <col|number>"}
  ],
  "output": {"type": "table"}
         or {"type": "scalar", "column": "<name>", "aggregate": "sum|mean|median|min|max|count"}
         or {"type": "plot", "kind": "bar|line|scatter", "x": "<name>", "y": "<name>", "title": "<text>"}
}

Rules:
- "steps" may be empty; steps run in the order given.
- After groupby the aggregated column keeps the target column's name; count produces a column named "count".
- Rows whose filter column is missing never match.
- Missing cells render as NaN in the sample rows below.
- Use only column names that appear in the schema.`

// documentTemplate wraps extracted document text for a direct model call. The
// document is cut to its first 4096 characters.
const documentTemplate = "Analyze the following document content and answer the question: '%s'.\n\nDocument Content:\n---\n%s...\n---"

// documentContextLimit bounds how much extracted text rides along with a
// document question.
const documentContextLimit = 4096

// buildPlanningPrompt assembles the instruction block, the dataset profile,
// and the user's question into one user message.
func buildPlanningPrompt(profile *dataset.Profile, question string) string {
	var b strings.Builder
	b.WriteString(plannerInstructions)
	b.WriteString("\n\n")
	b.WriteString(profile.PromptBlock())
	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

// buildDocumentPrompt embeds truncated document text and the question in the
// fixed template.
func buildDocumentPrompt(text, question string) string {
	return fmt.Sprintf(documentTemplate, strings.TrimSpace(question), truncateRunes(text, documentContextLimit))
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
