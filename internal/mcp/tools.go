package mcp

import "github.com/mark3labs/mcp-go/mcp"

var getTicketContextTool = mcp.NewTool("get_ticket_context",
	mcp.WithDescription("Get the current context summary of a support ticket: title, summary, confirmed facts, signals, unknowns, actions taken and sentiment."),
	mcp.WithString("ticket_id",
		mcp.Required(),
		mcp.Description("Ticket identifier"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "json"),
	),
)

var getTranscriptTool = mcp.NewTool("get_transcript",
	mcp.WithDescription("Get the unified chronological transcript of a ticket across chat, AI, voice and system channels."),
	mcp.WithString("ticket_id",
		mcp.Required(),
		mcp.Description("Ticket identifier"),
	),
	mcp.WithString("source",
		mcp.Description("Only include lines from this channel"),
		mcp.Enum("chat_message", "ai_message", "voice_transcript", "system"),
	),
)

var getQueuePositionTool = mcp.NewTool("get_queue_position",
	mcp.WithDescription("Get a queued ticket's live position in its vendor queue and the wait estimate it was given."),
	mcp.WithString("ticket_id",
		mcp.Required(),
		mcp.Description("Ticket identifier"),
	),
)

var listVendorQueueTool = mcp.NewTool("list_vendor_queue",
	mcp.WithDescription("List the tickets waiting in a vendor queue in service order."),
	mcp.WithString("vendor_id",
		mcp.Required(),
		mcp.Description("Vendor identifier"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)"),
	),
)

var searchRelatedTicketsTool = mcp.NewTool("search_related_tickets",
	mcp.WithDescription("Find earlier tickets whose context summaries resemble a description."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language description of the problem"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("exclude_ticket_id",
		mcp.Description("Ticket to leave out of the results, usually the current one"),
	),
)
