package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.engine.Documents()
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents uploaded yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", d.Number, d.Name, d.FileName))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.engine.Ask(ctx, question, request.GetString("documents", ""), nil)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	results, sel, err := s.engine.Search(ctx, query, request.GetString("documents", ""), limit)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}

	text := vectordb.FormatResults(results)
	if sel.FellBack {
		text = fallbackNote + "\n\n" + text
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleUploadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	res, err := s.engine.Upload(ctx, strings.NewReader(content), name)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stored as document %d (%s), %d chunk(s).",
		res.Record.Number, res.Record.FileName, res.Chunks)), nil
}

const fallbackNote = "Note: no documents matched the requested numbers, so all documents were searched."

// formatAnswer renders an answer and its sources for agent consumption.
func formatAnswer(ans *engine.Answer) string {
	var sb strings.Builder
	if ans.FellBack {
		sb.WriteString(fallbackNote + "\n\n")
	}
	sb.WriteString(ans.Answer)
	sb.WriteString("\n\nSources:\n")
	for _, src := range ans.Sources {
		sb.WriteString(fmt.Sprintf("- %s, chunk %d (similarity %.3f): %s\n",
			src.Document, src.Position+1, src.Similarity, oneLine(src.Text, 160)))
	}
	return sb.String()
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
