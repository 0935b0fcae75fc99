package service

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.24: What's New?  ", "go-1-24-what-s-new"},
		{"---", ""},
		{"过程 记录", "过程-记录"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractHeadingsFlattensInlineMarkup(t *testing.T) {
	headings := ExtractHeadings("# Using `gorm` with *sqlite*\n\nbody\n\n### Deep [link](https://example.com)\n")
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(headings))
	}
	if headings[0].Title != "Using gorm with sqlite" || headings[0].Slug != "using-gorm-with-sqlite" {
		t.Fatalf("unexpected first heading: %+v", headings[0])
	}
	if headings[1].Level != 3 || headings[1].Title != "Deep link" || headings[1].Order != 2 {
		t.Fatalf("unexpected second heading: %+v", headings[1])
	}
}

func TestRenderMarkdownSanitizesAndAnchorsHeadings(t *testing.T) {
	rendered, err := RenderMarkdown("# Intro\n\n<script>alert(1)</script>\n\n# Intro\n")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(rendered, "<script") {
		t.Fatalf("expected script to be stripped, got %s", rendered)
	}
	if !strings.Contains(rendered, `id="intro"`) || !strings.Contains(rendered, `id="intro-1"`) {
		t.Fatalf("expected heading anchors to match extracted slugs, got %s", rendered)
	}
}
