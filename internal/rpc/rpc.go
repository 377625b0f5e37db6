// Package rpc exposes the gateway operations as MCP tools over the server's
// request/response boundary. Argument shape is validated here, before any
// gateway call, so malformed input never reaches the protocol sessions.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mailgate/internal/gateway"
)

// Register wires the five gateway operations onto srv as MCP tools.
func Register(srv *server.MCPServer, g *gateway.Gateway) {
	srv.AddTool(mcp.NewTool("pollEmails",
		mcp.WithDescription("Polls the mail server for a summary of every message: id, Subject, From, Date and Message-ID."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := g.PollEmails()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entries)
	})

	srv.AddTool(mcp.NewTool("getEmailsById",
		mcp.WithDescription("Retrieves the full content (headers and body) of the given message IDs. Each ID gets its own result or error."),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("1-based message IDs to fetch"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := idsArgument(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries, err := g.GetEmailsByID(ids)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entries)
	})

	srv.AddTool(mcp.NewTool("deleteEmailsById",
		mcp.WithDescription("Marks the given message IDs for deletion. Deletion is committed when the session closes."),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("1-based message IDs to delete"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := idsArgument(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := g.DeleteEmailsByID(ids)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	})

	srv.AddTool(sendTool("sendTextEmail",
		"Sends a plain-text email through the configured SMTP server.",
	), sendHandler(g.SendTextEmail))

	srv.AddTool(sendTool("sendHtmlEmail",
		"Sends an HTML email (single-alternative MIME part) through the configured SMTP server.",
	), sendHandler(g.SendHTMLEmail))
}

func sendTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("fromAddress",
			mcp.Required(),
			mcp.Description("Sender address; servers may require it to match the authenticated user"),
		),
		mcp.WithArray("toAddresses",
			mcp.Required(),
			mcp.Description("Recipient addresses, at least one"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Message body")),
	)
}

func sendHandler(send func(from string, to []string, subject, body string) error) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from, err := stringArgument(req, "fromAddress")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		to, err := addressesArgument(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		subject, err := stringArgument(req, "subject")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body, err := stringArgument(req, "body")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := send(from, to, subject, body); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]string{"status": "success"})
	}
}

func idsArgument(req mcp.CallToolRequest) ([]any, error) {
	raw, ok := req.GetArguments()["ids"]
	if !ok {
		return nil, fmt.Errorf("%w: 'ids' is required", gateway.ErrValidation)
	}
	ids, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'ids' must be a list of integers", gateway.ErrValidation)
	}
	return ids, nil
}

func stringArgument(req mcp.CallToolRequest, name string) (string, error) {
	raw, ok := req.GetArguments()[name]
	if !ok {
		return "", fmt.Errorf("%w: '%s' is required", gateway.ErrValidation, name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: '%s' must be a string", gateway.ErrValidation, name)
	}
	return s, nil
}

func addressesArgument(req mcp.CallToolRequest) ([]string, error) {
	raw, ok := req.GetArguments()["toAddresses"]
	if !ok {
		return nil, fmt.Errorf("%w: 'toAddresses' is required", gateway.ErrValidation)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'toAddresses' must be a list of addresses", gateway.ErrValidation)
	}
	addrs := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: 'toAddresses' entries must be strings", gateway.ErrValidation)
		}
		addrs = append(addrs, s)
	}
	return addrs, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
