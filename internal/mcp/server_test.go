package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docqa/internal/engine/enginetest"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return tc.Text
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"list_documents", listDocumentsTool, "list_documents"},
		{"ask_documents", askDocumentsTool, "ask_documents"},
		{"search_documents", searchDocumentsTool, "search_documents"},
		{"upload_document", uploadDocumentTool, "upload_document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	f := enginetest.New(t)
	srv := NewServer(f.Engine)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.engine != f.Engine {
		t.Error("engine not set correctly")
	}
}

func TestHandleListDocuments(t *testing.T) {
	f := enginetest.New(t)
	srv := NewServer(f.Engine)
	ctx := context.Background()

	result, _ := srv.handleListDocuments(ctx, call(nil))
	if !strings.Contains(resultText(t, result), "No documents") {
		t.Errorf("unexpected text %q", resultText(t, result))
	}

	f.Upload(t, "Requirements.txt", "encrypt")
	result, _ = srv.handleListDocuments(ctx, call(nil))
	if !strings.Contains(resultText(t, result), "1. Requirements (1_Requirements.gob.gz)") {
		t.Errorf("unexpected text %q", resultText(t, result))
	}
}

func TestHandleAskDocuments(t *testing.T) {
	f := enginetest.New(t)
	srv := NewServer(f.Engine)
	ctx := context.Background()

	t.Run("missing question", func(t *testing.T) {
		result, err := srv.handleAskDocuments(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing question")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		result, _ := srv.handleAskDocuments(ctx, call(map[string]any{"question": "q?"}))
		if !result.IsError {
			t.Error("expected tool error for empty store")
		}
	})

	f.Upload(t, "Requirements.txt", "The system shall encrypt data at rest.")

	t.Run("answer with sources", func(t *testing.T) {
		result, _ := srv.handleAskDocuments(ctx, call(map[string]any{"question": "Encrypted?", "documents": "1"}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, f.Provider.Answer) || !strings.Contains(text, "Requirements.txt") {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("fallback noted", func(t *testing.T) {
		result, _ := srv.handleAskDocuments(ctx, call(map[string]any{"question": "Encrypted?", "documents": "8"}))
		if !strings.HasPrefix(resultText(t, result), "Note:") {
			t.Errorf("expected fallback note, got %q", resultText(t, result))
		}
	})

	t.Run("bad selection", func(t *testing.T) {
		result, _ := srv.handleAskDocuments(ctx, call(map[string]any{"question": "q?", "documents": "one"}))
		if !result.IsError {
			t.Error("expected tool error for non-numeric selection")
		}
	})
}

func TestHandleSearchDocuments(t *testing.T) {
	f := enginetest.New(t)
	srv := NewServer(f.Engine)
	f.Upload(t, "notes.txt", "alpha bravo charlie")

	result, err := srv.handleSearchDocuments(context.Background(), call(map[string]any{"query": "bravo", "limit": 3}))
	if err != nil || result.IsError {
		t.Fatalf("search failed: %v %v", err, result.Content)
	}
	if !strings.Contains(resultText(t, result), "Document: notes.txt") {
		t.Errorf("unexpected text %q", resultText(t, result))
	}
	if f.Provider.Calls() != 0 {
		t.Error("search must not call the model")
	}
}

func TestHandleUploadDocument(t *testing.T) {
	f := enginetest.New(t)
	srv := NewServer(f.Engine)
	ctx := context.Background()

	result, _ := srv.handleUploadDocument(ctx, call(map[string]any{"name": "policy.txt", "content": "Passwords rotate yearly."}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if !strings.Contains(resultText(t, result), "document 1") {
		t.Errorf("unexpected text %q", resultText(t, result))
	}

	result, _ = srv.handleUploadDocument(ctx, call(map[string]any{"name": "policy_v2.txt", "content": "x"}))
	if !result.IsError {
		t.Error("expected duplicate error")
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("a\n\nb   c", 10); got != "a b c" {
		t.Errorf("oneLine = %q", got)
	}
	if got := oneLine("абвгд", 3); got != "абв..." {
		t.Errorf("oneLine = %q", got)
	}
}
