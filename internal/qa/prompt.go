package qa

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

const systemPrompt = `You answer questions about the user's uploaded documents. Use only the pieces of context provided with the question. If the context does not contain the answer, say that you don't know; do not make one up. Answer in the language of the question.`

// BuildPrompt stuffs the retrieved chunks into a single user message,
// each labelled with its document.
func BuildPrompt(question string, hits []vectordb.SearchResult) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Use the following pieces of context to answer the question at the end.\n\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] From %s:\n%s\n\n", i+1, h.Entry.Source, strings.TrimSpace(h.Entry.Content))
	}
	fmt.Fprintf(&sb, "Question: %s\nHelpful answer:", question)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}
