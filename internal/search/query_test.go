// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"reflect"
	"testing"

	"github.com/pdiddy/paperfeed/pkg/types"
)

func TestNormalizeSingleTerm(t *testing.T) {
	got := Normalize(types.SearchQuery{"embodied AI"})

	if got.Semantic != "embodied AI" {
		t.Errorf("Semantic = %q, want %q", got.Semantic, "embodied AI")
	}
	want := `(ti:"embodied AI" OR abs:"embodied AI")`
	if got.Arxiv != want {
		t.Errorf("Arxiv = %q, want %q", got.Arxiv, want)
	}
	if !reflect.DeepEqual(got.Tags, []string{"embodied AI"}) {
		t.Errorf("Tags = %v, want [embodied AI]", got.Tags)
	}
	if got.Label != "embodied AI" {
		t.Errorf("Label = %q, want %q", got.Label, "embodied AI")
	}
}

func TestNormalizeConjunction(t *testing.T) {
	got := Normalize(types.SearchQuery{"SLAM", "loop closure"})

	if got.Semantic != `"SLAM" "loop closure"` {
		t.Errorf("Semantic = %q", got.Semantic)
	}
	want := `(ti:"SLAM" OR abs:"SLAM") AND (ti:"loop closure" OR abs:"loop closure")`
	if got.Arxiv != want {
		t.Errorf("Arxiv = %q, want %q", got.Arxiv, want)
	}
	if !reflect.DeepEqual(got.Tags, []string{"SLAM", "loop closure"}) {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.Label != "SLAM + loop closure" {
		t.Errorf("Label = %q, want %q", got.Label, "SLAM + loop closure")
	}
}

func TestNormalizeDropsBlankTerms(t *testing.T) {
	got := Normalize(types.SearchQuery{"", "SLAM", ""})
	if got.Semantic != "SLAM" {
		t.Errorf("Semantic = %q, want %q", got.Semantic, "SLAM")
	}
	if !reflect.DeepEqual(got.Tags, []string{"SLAM"}) {
		t.Errorf("Tags = %v, want [SLAM]", got.Tags)
	}
}

func TestNormalizeEmptyQuery(t *testing.T) {
	tests := []struct {
		name string
		q    types.SearchQuery
	}{
		{"nil", nil},
		{"empty", types.SearchQuery{}},
		{"all blank", types.SearchQuery{"", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.q)
			if got.Semantic != "" || got.Arxiv != "" || got.Tags != nil || got.Label != "" {
				t.Errorf("Normalize(%v) = %+v, want zero value", tt.q, got)
			}
		})
	}
}
