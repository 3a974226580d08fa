// Package language resolves the configured report language.
//
// The "auto" setting is matched against the process locale (LC_ALL,
// LC_MESSAGES, LANG) with a BCP 47 matcher; every other setting maps to a
// fixed tag. Only English and Chinese are supported, and anything that does
// not match Chinese falls back to English.
package language
