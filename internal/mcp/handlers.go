package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
)

func (s *Server) handleGetTicketContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireString("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: ticket_id"), nil
	}

	summary, err := s.engine.GetByTicket(ctx, ticketID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading context failed: %v", err)), nil
	}
	if summary == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Ticket %s has no context summary yet.", ticketID)), nil
	}

	if request.GetString("format", "markdown") == "json" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding context failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(contextmerge.Markdown(summary)), nil
}

func (s *Server) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireString("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: ticket_id"), nil
	}

	entries, err := s.stream.ListByTicket(ctx, ticketID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading transcript failed: %v", err)), nil
	}

	if src := request.GetString("source", ""); src != "" {
		source, err := timeline.ParseSource(src)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.Source == source {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Ticket %s has no transcript entries.", ticketID)), nil
	}
	return mcp.NewToolResultText(timeline.Render(entries)), nil
}

func (s *Server) handleGetQueuePosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireString("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: ticket_id"), nil
	}

	pos, err := s.scheduler.GetPosition(ctx, ticketID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading position failed: %v", err)), nil
	}
	if pos == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Ticket %s is not queued.", ticketID)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Ticket %s is at position %d in the %s queue (priority %d, estimated wait at enqueue %d minutes).",
		pos.TicketID, pos.Position, pos.VendorID, pos.Priority, pos.EstimatedWaitMinutes,
	)), nil
}

func (s *Server) handleListVendorQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendorID, err := request.RequireString("vendor_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: vendor_id"), nil
	}
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	entries, err := s.scheduler.ListByVendor(ctx, vendorID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing queue failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("The %s queue is empty.", vendorID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d ticket(s) waiting for %s:\n", len(entries), vendorID)
	for i, e := range entries {
		if i == limit {
			fmt.Fprintf(&b, "... and %d more\n", len(entries)-limit)
			break
		}
		fmt.Fprintf(&b, "%d. %s (priority %d)\n", e.Position, e.TicketID, e.Priority)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSearchRelatedTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)

	matches, err := s.index.Search(ctx, query, limit, request.GetString("exclude_ticket_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No related tickets found."), nil
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s: %s (similarity %.2f)\n", i+1, m.TicketID, m.Title, m.Similarity)
	}
	return mcp.NewToolResultText(b.String()), nil
}
