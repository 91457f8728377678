package models

import (
	"encoding/json"
	"testing"
)

func TestParseVariants_Object(t *testing.T) {
	variants, err := ParseVariants(json.RawMessage(`{"size":"M","color":"red"}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if variants["size"] != "M" || variants["color"] != "red" {
		t.Errorf("Unexpected variants: %v", variants)
	}
}

func TestParseVariants_StringWrapped(t *testing.T) {
	// Legacy clients send the map JSON-encoded inside a string.
	variants, err := ParseVariants(json.RawMessage(`"{\"size\":\"L\"}"`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if variants["size"] != "L" {
		t.Errorf("Unexpected variants: %v", variants)
	}
}

func TestParseVariants_Empty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`""`)} {
		variants, err := ParseVariants(raw)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", raw, err)
		}
		if variants != nil {
			t.Errorf("Expected nil variants for %q, got %v", raw, variants)
		}
	}
}

func TestParseVariants_Malformed(t *testing.T) {
	cases := []json.RawMessage{
		json.RawMessage(`"{not json"`),
		json.RawMessage(`[1,2,3]`),
		json.RawMessage(`{"size":42}`),
	}
	for _, raw := range cases {
		if _, err := ParseVariants(raw); err == nil {
			t.Errorf("Expected an error for %s", raw)
		}
	}
}
