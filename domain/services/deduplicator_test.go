package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{name: "case variants collapse to first", labels: []string{"AI", "ai", "SEO"}, want: []string{"AI", "SEO"}},
		{name: "whitespace variants collapse", labels: []string{" SEO", "seo ", "Seo"}, want: []string{" SEO"}},
		{name: "order follows first occurrence", labels: []string{"b", "a", "B", "c", "A"}, want: []string{"b", "a", "c"}},
		{name: "no duplicates", labels: []string{"Digital PR", "PR Strategy"}, want: []string{"Digital PR", "PR Strategy"}},
		{name: "empty input", labels: []string{}, want: []string{}},
		{name: "nil input", labels: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.labels)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), len(tt.labels))

			seen := make(map[string]bool)
			for _, label := range got {
				normalized := Normalize(label)
				assert.False(t, seen[normalized], "duplicate normalized form %q", normalized)
				seen[normalized] = true
			}
		})
	}
}

func TestExcludeExisting(t *testing.T) {
	existing := map[string]struct{}{
		"digital pr": {},
		"seo":        {},
	}

	got := ExcludeExisting([]string{"Digital PR", "Link Building", " SEO ", "Content"}, existing)

	assert.Equal(t, []string{"Link Building", "Content"}, got)
	assert.Empty(t, ExcludeExisting(nil, existing))
}
