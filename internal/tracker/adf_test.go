package tracker

import (
	"encoding/json"
	"testing"
)

func TestADFText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"plain string", `"just text"`, "just text"},
		{"invalid", `{`, ""},
		{
			name: "nested paragraphs",
			raw: `{"type":"doc","content":[
				{"type":"paragraph","content":[{"type":"text","text":"one"},{"type":"text","text":"two"}]},
				{"type":"bulletList","content":[{"type":"listItem","content":[
					{"type":"paragraph","content":[{"type":"text","text":"three"}]}]}]}]}`,
			want: "one two three",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adfText(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("adfText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestADFDocumentRoundTrip(t *testing.T) {
	data, err := json.Marshal(adfDocument("hello world"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := adfText(data); got != "hello world" {
		t.Errorf("adfText(adfDocument()) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate() = %q, want hé", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate() = %q, want abc", got)
	}
}
