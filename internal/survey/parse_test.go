package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/solatis/surveylogic/internal/types"
)

const sampleSurvey = `{
  "title": "Customer feedback",
  "pages": [
    {
      "name": "intro",
      "elements": [
        {"type": "boolean", "name": "consent"},
        {
          "type": "panel",
          "name": "details",
          "visibleIf": "{consent} = true",
          "elements": [
            {"type": "text", "name": "email", "visibleIf": "{consent} = true"},
            {"type": "panel", "name": "extra", "elements": [
              {"type": "checkbox", "name": "topics", "choices": ["a", "b"]}
            ]}
          ]
        }
      ]
    },
    {
      "name": "outro",
      "visibleIf": "{consent} = true",
      "questions": [
        {"type": "comment", "name": "notes"}
      ]
    }
  ]
}`

func names(elements []types.Element) []string {
	var out []string
	for _, e := range elements {
		name, _ := e.Property("name").(string)
		out = append(out, name)
	}
	return out
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleSurvey))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if doc.Title() != "Customer feedback" {
		t.Errorf("Title() = %v, want Customer feedback", doc.Title())
	}
	if diff := cmp.Diff([]string{"intro", "outro"}, names(doc.Pages())); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"consent", "email", "topics", "notes"}, names(doc.AllQuestions())); diff != "" {
		t.Errorf("AllQuestions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"details", "extra"}, names(doc.AllPanels())); diff != "" {
		t.Errorf("AllPanels() mismatch (-want +got):\n%s", diff)
	}

	email, ok := doc.FindElement("email")
	if !ok {
		t.Fatal("FindElement(email) not found")
	}
	if email.Type() != "text" {
		t.Errorf("Type() = %v, want text", email.Type())
	}
	if email.Property("visibleIf") != "{consent} = true" {
		t.Errorf("Property(visibleIf) = %v, want {consent} = true", email.Property("visibleIf"))
	}

	outro, _ := doc.FindElement("outro")
	if outro.Type() != "page" || outro.Kind() != KindPage {
		t.Errorf("outro Type() = %v Kind() = %v, want page/page", outro.Type(), outro.Kind())
	}
	if outro.Property("questions") != nil {
		t.Errorf("child list leaked into properties")
	}
}

func TestParse_ImplicitPage(t *testing.T) {
	doc, err := Parse([]byte(`{"elements": [{"type": "text", "name": "q1"}]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if diff := cmp.Diff([]string{"page1"}, names(doc.Pages())); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
	if len(doc.AllQuestions()) != 1 {
		t.Errorf("len(AllQuestions()) = %v, want 1", len(doc.AllQuestions()))
	}
}

func TestDecoder_PanelSubclass(t *testing.T) {
	const input = `{"pages": [{"name": "p1", "elements": [
	  {"type": "mypanel", "name": "box", "elements": [{"type": "text", "name": "inner"}]},
	  {"type": "loop", "name": "odd"}
	]}]}`

	registry := DefaultRegistry()
	registry.Register("mypanel", "panel")
	registry.Register("loop", "loopback")
	registry.Register("loopback", "loop")

	tests := []struct {
		name          string
		decoder       *Decoder
		wantPanels    []string
		wantQuestions []string
	}{
		{
			name:          "registered subclass",
			decoder:       NewDecoder(registry),
			wantPanels:    []string{"box"},
			wantQuestions: []string{"inner", "odd"},
		},
		{
			name:          "default hierarchy",
			decoder:       NewDecoder(DefaultRegistry()),
			wantQuestions: []string{"box", "odd"},
		},
		{
			name:          "nil registry",
			decoder:       NewDecoder(nil),
			wantQuestions: []string{"box", "odd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tt.decoder.Parse([]byte(input))
			if err != nil {
				t.Fatalf("Parse() error = %v, want nil", err)
			}
			if diff := cmp.Diff(tt.wantPanels, names(doc.AllPanels())); diff != "" {
				t.Errorf("AllPanels() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantQuestions, names(doc.AllQuestions())); diff != "" {
				t.Errorf("AllQuestions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(doc.Pages()) != 0 {
		t.Errorf("len(Pages()) = %v, want 0", len(doc.Pages()))
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "array root", data: `[]`},
		{name: "null root", data: `null`},
		{name: "pages not array", data: `{"pages": {}}`},
		{name: "page not object", data: `{"pages": [1]}`},
		{name: "elements not array", data: `{"pages": [{"elements": "x"}]}`},
		{name: "element without type", data: `{"pages": [{"elements": [{"name": "q"}]}]}`},
		{name: "element not object", data: `{"pages": [{"elements": ["q"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, types.ErrInvalidSurvey) {
				t.Errorf("Parse() error = %v, want ErrInvalidSurvey", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.json")
	if err := os.WriteFile(path, []byte(sampleSurvey), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v, want nil", err)
	}
	if len(doc.Pages()) != 2 {
		t.Errorf("len(Pages()) = %v, want 2", len(doc.Pages()))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseReader(t *testing.T) {
	doc, err := ParseReader(strings.NewReader(sampleSurvey))
	if err != nil {
		t.Fatalf("ParseReader() error = %v, want nil", err)
	}
	if len(doc.AllPanels()) != 2 {
		t.Errorf("len(AllPanels()) = %v, want 2", len(doc.AllPanels()))
	}
}
