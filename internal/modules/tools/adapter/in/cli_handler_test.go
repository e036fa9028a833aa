package in_test

import (
	"strings"
	"testing"

	in "devdeck/internal/modules/tools/adapter/in"
	"devdeck/internal/modules/tools/dto"
)

func TestSplitKeys(t *testing.T) {
	t.Parallel()
	keys, err := in.SplitKeys(" npm:@vue/cli, pip:black ,,")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(keys) != 2 || keys[0] != "npm:@vue/cli" || keys[1] != "pip:black" {
		t.Fatalf("unexpected keys: %+v", keys)
	}
	if _, err := in.SplitKeys(" , "); err == nil {
		t.Fatalf("expected error for empty key list")
	}
	if _, err := in.SplitKeys("eslint"); err == nil {
		t.Fatalf("expected error for key without source")
	}
}

func TestFormatBatch(t *testing.T) {
	t.Parallel()
	text := in.FormatBatch(dto.BatchOutput{
		Results: []dto.BatchResult{
			{Key: "npm:foo", Success: true, Message: "removed"},
			{Key: "npm:bar", Success: false, Message: "no result reported\nmore"},
		},
		Failed: 1,
	})
	if !strings.Contains(text, "FAILED npm:bar  no result reported\n") {
		t.Fatalf("unexpected failure line:\n%s", text)
	}
	if !strings.HasSuffix(text, "1 succeeded, 1 failed\n") {
		t.Fatalf("unexpected tally:\n%s", text)
	}
}
