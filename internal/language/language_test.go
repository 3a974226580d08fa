package language

import (
	"testing"

	"animexport/internal/config"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		locale string
		want   config.Language
	}{
		{"zh_CN.UTF-8", config.LanguageChinese},
		{"zh_TW", config.LanguageChinese},
		{"zh-Hans", config.LanguageChinese},
		{"en_US.UTF-8", config.LanguageEnglish},
		{"en_GB@euro", config.LanguageEnglish},
		{"C", config.LanguageEnglish},
		{"POSIX", config.LanguageEnglish},
		{"de_DE.UTF-8", config.LanguageEnglish},
		{"not a locale!", config.LanguageEnglish},
	}
	for _, tt := range tests {
		if got := Match(tt.locale); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestResolveExplicitSettingWins(t *testing.T) {
	env := map[string]string{"LANG": "zh_CN.UTF-8"}
	getenv := func(k string) string { return env[k] }

	if got := resolve(config.LanguageEnglish, getenv); got != config.LanguageEnglish {
		t.Fatalf("explicit english resolved to %q", got)
	}
	if got := resolve(config.LanguageAuto, getenv); got != config.LanguageChinese {
		t.Fatalf("auto with zh locale resolved to %q", got)
	}
}

func TestResolveEnvPriority(t *testing.T) {
	env := map[string]string{"LC_ALL": "en_US.UTF-8", "LANG": "zh_CN.UTF-8"}
	getenv := func(k string) string { return env[k] }
	if got := resolve(config.LanguageAuto, getenv); got != config.LanguageEnglish {
		t.Fatalf("LC_ALL should win, got %q", got)
	}
	if got := resolve(config.LanguageAuto, func(string) string { return "" }); got != config.LanguageEnglish {
		t.Fatalf("empty environment should fall back to english, got %q", got)
	}
}

func TestResolveReadsProcessEnvironment(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "zh_CN.UTF-8")
	if got := Resolve(config.LanguageAuto); got != config.LanguageChinese {
		t.Fatalf("Resolve(auto) = %q", got)
	}
}

func TestTagAndTitle(t *testing.T) {
	if Tag(config.LanguageChinese).String() != "zh" {
		t.Fatalf("unexpected chinese tag %v", Tag(config.LanguageChinese))
	}
	if Tag(config.LanguageEnglish).String() != "en" {
		t.Fatalf("unexpected english tag %v", Tag(config.LanguageEnglish))
	}
	if got := Title("WARNING"); got != "Warning" {
		t.Fatalf("Title = %q", got)
	}
}
