package contentgen

import (
	"context"
	"reflect"
	"testing"
)

func TestNilGenerator_DegradesToEmpty(t *testing.T) {
	var g *Generator
	ctx := context.Background()

	if got := g.DraftDescription(ctx, "Morning Runners"); got != "" {
		t.Errorf("DraftDescription on nil generator = %q, want empty", got)
	}
	if got := g.SuggestInterests(ctx, "Morning Runners", "", []string{"Fitness"}); got != nil {
		t.Errorf("SuggestInterests on nil generator = %v, want nil", got)
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close on nil generator = %v", err)
	}
}

func TestMatchCatalog(t *testing.T) {
	catalog := []string{"Fitness", "Reading", "Cooking", "Languages"}

	cases := []struct {
		name   string
		answer string
		want   []string
	}{
		{"plain list", "Fitness, Reading", []string{"Fitness", "Reading"}},
		{"case and whitespace", " fitness ,COOKING", []string{"Fitness", "Cooking"}},
		{"off-catalog entries dropped", "Fitness, Knitting, Dancing", []string{"Fitness"}},
		{"duplicates collapsed", "Fitness, fitness, Fitness", []string{"Fitness"}},
		{"capped at three", "Fitness, Reading, Cooking, Languages", []string{"Fitness", "Reading", "Cooking"}},
		{"none sentinel", "NONE", nil},
		{"empty answer", "", nil},
	}
	for _, c := range cases {
		if got := matchCatalog(c.answer, catalog); !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: matchCatalog(%q) = %v, want %v", c.name, c.answer, got, c.want)
		}
	}
}
