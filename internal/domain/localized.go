package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// LocaleEnglish is the fallback locale when a requested translation is missing.
	LocaleEnglish = "en"
	// LocaleSwedish is the locale SMHI uses for place names.
	LocaleSwedish = "sv"

	codeKey = "code"
)

// Localized maps a locale ("en", "sv") to its text.
type Localized map[string]string

// Get returns the text for locale, falling back to English, then to "".
func (l Localized) Get(locale string) string {
	if s, ok := l[locale]; ok && s != "" {
		return s
	}
	return l[LocaleEnglish]
}

// UnmarshalJSON keeps every string-valued key except "code" and ignores the rest.
func (l *Localized) UnmarshalJSON(data []byte) error {
	_, names, err := decodeLabeled(data)
	if err != nil {
		return err
	}
	*l = names
	return nil
}

// decodeLabeled splits an IBWW label object into its code and its translations.
func decodeLabeled(data []byte) (string, Localized, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, fmt.Errorf("decode localized text: %w", err)
	}

	var code string
	names := make(Localized, len(fields))
	for key, raw := range fields {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if key == codeKey {
			code = s
			continue
		}
		names[key] = s
	}
	return code, names, nil
}

// encodeLabeled is the inverse of decodeLabeled. Keys come out sorted.
func encodeLabeled(code string, names Localized) ([]byte, error) {
	out := make(map[string]string, len(names)+1)
	for k, v := range names {
		out[k] = v
	}
	if code != "" {
		out[codeKey] = code
	}
	return json.Marshal(out)
}
