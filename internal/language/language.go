package language

import (
	"os"
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"

	"animexport/internal/config"
)

var supported = []xlang.Tag{xlang.English, xlang.Chinese}

var matcher = xlang.NewMatcher(supported)

// localeEnv lists the variables consulted for "auto", highest priority first.
var localeEnv = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Resolve returns the concrete language for setting. Auto is resolved from
// the environment.
func Resolve(setting config.Language) config.Language {
	return resolve(setting, os.Getenv)
}

func resolve(setting config.Language, getenv func(string) string) config.Language {
	switch setting {
	case config.LanguageEnglish, config.LanguageChinese:
		return setting
	}
	for _, key := range localeEnv {
		if locale := getenv(key); strings.TrimSpace(locale) != "" {
			return Match(locale)
		}
	}
	return config.LanguageEnglish
}

// Match maps a POSIX locale such as "zh_CN.UTF-8" or a BCP 47 tag to the
// closest supported language.
func Match(locale string) config.Language {
	tag, err := xlang.Parse(posixToBCP47(locale))
	if err != nil {
		return config.LanguageEnglish
	}
	_, idx, conf := matcher.Match(tag)
	if conf != xlang.No && idx < len(supported) && supported[idx] == xlang.Chinese {
		return config.LanguageChinese
	}
	// Traditional script variants may not clear the matcher threshold.
	if base, _ := tag.Base(); base.String() == "zh" {
		return config.LanguageChinese
	}
	return config.LanguageEnglish
}

// Tag returns the BCP 47 tag for a resolved language.
func Tag(lang config.Language) xlang.Tag {
	if lang == config.LanguageChinese {
		return xlang.Chinese
	}
	return xlang.English
}

// Title title-cases s for table headers and labels.
func Title(s string) string {
	return cases.Title(xlang.English).String(strings.ToLower(s))
}

func posixToBCP47(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" || locale == "" {
		return "en"
	}
	return strings.ReplaceAll(locale, "_", "-")
}
