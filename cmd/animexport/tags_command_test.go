package main

import (
	"strings"
	"testing"
)

func TestTagsCommandStableLevel(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tags"}, env.configPath)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	requireContains(t, out, "Tag mode stable, level 80")
	requireContains(t, out, "TextSourceV3")
}

func TestTagsCommandDeniedAtCustomLevel(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tags", "--mode", "custom", "--level", "60", "--denied"}, env.configPath)
	if err != nil {
		t.Fatalf("tags --denied: %v", err)
	}
	requireContains(t, out, "custom(60)")
	if strings.Contains(out, " yes ") {
		t.Fatalf("--denied must not list allowed tags:\n%s", out)
	}
	requireContains(t, out, "ImageFillRuleV2")
}

func TestTagsCommandRejectsOutOfRangeLevel(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"tags", "--mode", "custom", "--level", "12"}, env.configPath); err == nil {
		t.Fatal("expected error for level 12")
	}
}
