package rpc

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"mailgate/internal/gateway"
)

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestIDsArgument(t *testing.T) {
	ids, err := idsArgument(request(map[string]any{"ids": []any{float64(1), float64(2)}}))
	if err != nil {
		t.Fatalf("idsArgument: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v, want 2 values", ids)
	}
}

func TestIDsArgumentMissing(t *testing.T) {
	_, err := idsArgument(request(map[string]any{}))
	if !errors.Is(err, gateway.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestIDsArgumentNotAList(t *testing.T) {
	_, err := idsArgument(request(map[string]any{"ids": "1,2"}))
	if !errors.Is(err, gateway.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestStringArgument(t *testing.T) {
	s, err := stringArgument(request(map[string]any{"subject": "hi"}), "subject")
	if err != nil {
		t.Fatalf("stringArgument: %v", err)
	}
	if s != "hi" {
		t.Errorf("value = %q", s)
	}

	if _, err := stringArgument(request(map[string]any{}), "subject"); !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("missing argument: err = %v, want validation error", err)
	}
	if _, err := stringArgument(request(map[string]any{"subject": 7}), "subject"); !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("non-string argument: err = %v, want validation error", err)
	}
}

func TestAddressesArgument(t *testing.T) {
	addrs, err := addressesArgument(request(map[string]any{
		"toAddresses": []any{"bob@example.com", "carol@example.com"},
	}))
	if err != nil {
		t.Fatalf("addressesArgument: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != "bob@example.com" {
		t.Errorf("addrs = %v", addrs)
	}
}

func TestAddressesArgumentNonStringEntry(t *testing.T) {
	_, err := addressesArgument(request(map[string]any{
		"toAddresses": []any{"bob@example.com", 42},
	}))
	if !errors.Is(err, gateway.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestJSONResult(t *testing.T) {
	res, err := jsonResult(map[string]string{"status": "success"})
	if err != nil {
		t.Fatalf("jsonResult: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("content = %+v, want one text block", res.Content)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T, want text", res.Content[0])
	}
	if text.Text != `{"status":"success"}` {
		t.Errorf("text = %q", text.Text)
	}
}
