package index

import "testing"

func TestExtractLinks_CategoryEscape(t *testing.T) {
	links := ExtractLinks([]byte("[[Beta]] [[Category:People]] [[:Category:People]]"))
	if len(links) != 3 {
		t.Fatalf("len(links) = %d, want 3: %+v", len(links), links)
	}
	want := []Link{
		{TargetTitle: "Beta", TargetNamespace: "", IsCategory: false},
		{TargetTitle: "Category:People", TargetNamespace: "Category", IsCategory: true},
		{TargetTitle: "Category:People", TargetNamespace: "Category", IsCategory: false},
	}
	for i, w := range want {
		if links[i] != w {
			t.Errorf("links[%d] = %+v, want %+v", i, links[i], w)
		}
	}
}

func TestExtractLinks_Normalization(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Link
	}{
		{
			name:    "pipe strips display text",
			content: "[[Target page|shown text]]",
			want:    []Link{{TargetTitle: "Target page"}},
		},
		{
			name:    "fragment stripped",
			content: "[[Alpha#History]]",
			want:    []Link{{TargetTitle: "Alpha"}},
		},
		{
			name:    "underscores and runs of whitespace fold",
			content: "[[Alpha_Beta   Gamma]]",
			want:    []Link{{TargetTitle: "Alpha Beta Gamma"}},
		},
		{
			name:    "scheme urls rejected",
			content: "[[http://example.com]] [[https://example.com/x]] [[//cdn.example.com]]",
			want:    nil,
		},
		{
			name:    "empty and fragment-only skipped",
			content: "[[]] [[ ]] [[#section]]",
			want:    nil,
		},
		{
			name:    "template namespace resolved",
			content: "[[Template:Infobox person]]",
			want:    []Link{{TargetTitle: "Template:Infobox person", TargetNamespace: "Template"}},
		},
		{
			name:    "unclosed span ignored",
			content: "text [[dangling",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks([]byte(tt.content))
			if len(got) != len(tt.want) {
				t.Fatalf("links = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("links[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
