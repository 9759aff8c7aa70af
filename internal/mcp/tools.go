package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the uploaded documents with their numbers. Use the numbers to restrict ask_documents and search_documents."),
)

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Answer a question from the uploaded documents. Returns the answer and the passages it was based on."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
	mcp.WithString("documents",
		mcp.Description("Space-separated document numbers to search, e.g. \"1 3\". Empty searches all documents."),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantic search over the uploaded documents without generating an answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithString("documents",
		mcp.Description("Space-separated document numbers to search. Empty searches all documents."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
)

// uploadDocumentTool defines the upload_document MCP tool.
var uploadDocumentTool = mcp.NewTool("upload_document",
	mcp.WithDescription("Index a plain-text document so it can be searched and asked about."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name for the document, e.g. Requirements.txt"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Full text of the document"),
	),
)
