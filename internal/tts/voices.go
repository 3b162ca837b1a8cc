package tts

import "strings"

// languageLocales maps bare two-letter language codes to their canonical
// synthesis locale.
var languageLocales = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"zh": "zh-CN",
	"hi": "hi-IN",
	"ne": "ne-NP",
	"ar": "ar-SA",
	"ru": "ru-RU",
}

// defaultVoices holds the neural voice used when the caller does not name one.
var defaultVoices = map[string]string{
	"en-US": "en-US-JennyNeural",
	"en-GB": "en-GB-SoniaNeural",
	"es-ES": "es-ES-ElviraNeural",
	"fr-FR": "fr-FR-DeniseNeural",
	"de-DE": "de-DE-KatjaNeural",
	"it-IT": "it-IT-ElsaNeural",
	"pt-BR": "pt-BR-FranciscaNeural",
	"ja-JP": "ja-JP-NanamiNeural",
	"ko-KR": "ko-KR-SunHiNeural",
	"zh-CN": "zh-CN-XiaoxiaoNeural",
	"hi-IN": "hi-IN-SwaraNeural",
	"ne-NP": "ne-NP-HemkalaNeural",
	"ar-SA": "ar-SA-ZariyahNeural",
	"ru-RU": "ru-RU-SvetlanaNeural",
}

// NormalizeLocale turns a language tag into the full locale the synthesis
// endpoint expects. Bare language codes like "en" map to a canonical region;
// unknown tags pass through unchanged.
func NormalizeLocale(tag string) string {
	if tag == "" {
		return "en-US"
	}
	if strings.Contains(tag, "-") {
		return tag
	}
	if full, ok := languageLocales[strings.ToLower(tag)]; ok {
		return full
	}
	return tag
}

// DefaultVoice returns the default neural voice for a locale, falling back to
// the en-US default for locales without an entry.
func DefaultVoice(locale string) string {
	if v, ok := defaultVoices[locale]; ok {
		return v
	}
	return defaultVoices["en-US"]
}
