package domain_test

import (
	"errors"
	"testing"

	"devdeck/internal/modules/tools/domain"
	apperrors "devdeck/internal/platform/errors"
)

func TestParseKeyKeepsSeparatorsInNames(t *testing.T) {
	t.Parallel()
	cases := map[string]domain.Key{
		"npm:@vue/cli":          {Source: domain.SourceNpm, FullName: "@vue/cli"},
		"npm:create-react-app":  {Source: domain.SourceNpm, FullName: "create-react-app"},
		"pip:jupyter-core":      {Source: domain.SourcePip, FullName: "jupyter-core"},
		"cargo:cargo:weird":     {Source: domain.SourceCargo, FullName: "cargo:weird"},
		"unknown:something-odd": {Source: domain.SourceUnknown, FullName: "something-odd"},
	}
	for raw, want := range cases {
		got, err := domain.ParseKey(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %+v want %+v", raw, got, want)
		}
		if got.String() != raw {
			t.Fatalf("round trip %q: got %q", raw, got.String())
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "eslint", ":eslint", "npm:"} {
		if _, err := domain.ParseKey(raw); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", raw, err)
		}
	}
	if _, err := domain.ParseKey("brew:wget"); !errors.Is(err, apperrors.ErrUnsupportedSource) {
		t.Fatalf("expected unsupported source, got %v", err)
	}
}

func TestFilterMatchesNameOrScope(t *testing.T) {
	t.Parallel()
	records := []domain.ToolRecord{
		{Name: "cli", Scope: "@vue", FullName: "@vue/cli", Source: domain.SourceNpm},
		{Name: "eslint", FullName: "eslint", Source: domain.SourceNpm},
		{Name: "black", FullName: "black", Source: domain.SourcePip},
	}
	if got := domain.Filter(records, "", "VUE"); len(got) != 1 || got[0].FullName != "@vue/cli" {
		t.Fatalf("scope match failed: %+v", got)
	}
	if got := domain.Filter(records, domain.SourcePip, ""); len(got) != 1 || got[0].Name != "black" {
		t.Fatalf("source filter failed: %+v", got)
	}
	if got := domain.Filter(records, "", ""); len(got) != 3 {
		t.Fatalf("empty filter should keep all, got %d", len(got))
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	summary := domain.Summarize([]domain.ToolRecord{
		{Source: domain.SourceNpm, SizeBytes: 10},
		{Source: domain.SourceNpm, SizeBytes: 5},
		{Source: domain.SourceCargo, SizeBytes: 1},
	})
	if summary.TotalTools != 3 || summary.TotalSizeBytes != 16 || summary.BySource[domain.SourceNpm] != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	sources := summary.SortedSources()
	if len(sources) != 2 || sources[0] != domain.SourceCargo {
		t.Fatalf("unexpected source order: %v", sources)
	}
}
