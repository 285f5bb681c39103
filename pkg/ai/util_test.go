package ai

import (
	"reflect"
	"testing"
)

func TestUnmarshalFlexible(t *testing.T) {
	type item struct {
		URL   string `json:"url"`
		Title string `json:"title,omitempty"`
	}
	type payload struct {
		Suggestions []item `json:"suggestions"`
	}

	want := payload{Suggestions: []item{{URL: "https://nature.com/a", Title: "A"}}}

	tests := []struct {
		name  string
		input string
	}{
		{name: "valid json", input: `{"suggestions":[{"url":"https://nature.com/a","title":"A"}]}`},
		{name: "code fence", input: "```json\n{\"suggestions\":[{\"url\":\"https://nature.com/a\",\"title\":\"A\"}]}\n```"},
		{name: "bare code fence", input: "```\n{\"suggestions\":[{\"url\":\"https://nature.com/a\",\"title\":\"A\"}]}\n```"},
		{name: "trailing comma", input: `{"suggestions":[{"url":"https://nature.com/a","title":"A",},]}`},
		{name: "single quotes", input: `{suggestions: [{url: 'https://nature.com/a', title: 'A'}]}`},
		{name: "double encoded", input: `"{\"suggestions\":[{\"url\":\"https://nature.com/a\",\"title\":\"A\"}]}"`},
		{name: "duplicate leading brace", input: "{\n{\"suggestions\":[{\"url\":\"https://nature.com/a\",\"title\":\"A\"}]}"},
		{name: "missing end", input: `{"suggestions":[{"url":"https://nature.com/a","title":"A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %+v want %+v", got, want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "```json\n[1]\n```", want: "[1]"},
		{in: "```\n[1]", want: "```\n[1]"},
		{in: "```\n[1]\n[2]", want: "[1]\n[2]"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateSchemaDisallowsExtraProperties(t *testing.T) {
	schema := GenerateSchema(&suggestionResponse{})
	if schema == nil {
		t.Fatalf("expected schema")
	}
}
