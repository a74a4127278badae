package bus_test

import (
	"encoding/json"
	"errors"
	"testing"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
)

func TestEnvelope_EncodeDecode(t *testing.T) {
	e := cbus.NewEnvelope("orders.created", map[string]string{"h": "v"})
	if e.ID == "" || e.PublishedAt.IsZero() {
		t.Fatalf("envelope not stamped: %+v", e)
	}

	b, err := e.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := cbus.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != e.ID || got.Topic != "orders.created" || got.Headers["h"] != "v" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEnvelope_DecodeRejectsEmptyTopic(t *testing.T) {
	if _, err := cbus.DecodeEnvelope([]byte(`{"id":"x"}`)); !errors.Is(err, berr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed for empty topic, got %v", err)
	}

	_, err := cbus.DecodeEnvelope([]byte(`not json`))
	if !errors.Is(err, berr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed for malformed body, got %v", err)
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("json cause not preserved: %v", err)
	}
}

func TestCopyHeaders_DoesNotAlias(t *testing.T) {
	src := map[string]string{"a": "1"}
	dst := cbus.CopyHeaders(src, 1)
	dst["b"] = "2"

	if _, ok := src["b"]; ok {
		t.Fatalf("source mutated: %+v", src)
	}
}
