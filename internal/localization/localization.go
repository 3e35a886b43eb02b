// Package localization holds the notice texts sent to chat participants.
// Translations are JSON files embedded at build time, one per language code.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Keys of the notice texts.
const (
	UserJoined           = "user_joined"
	UserLeft             = "user_left"
	PaymentInvalid       = "payment_invalid"
	PaymentFailed        = "payment_failed"
	PaymentNotConfigured = "payment_not_configured"
	PayerUnknown         = "payer_unknown"
)

const fallbackLanguage = "en"

//go:embed locales/*.json
var locales embed.FS

// Localizer resolves keys for one configured language. It is read-only after
// construction.
type Localizer struct {
	lang         string
	translations map[string]map[string]string
}

// New loads the embedded translations and selects lang. Unknown languages
// resolve through the English texts.
func New(lang string) (*Localizer, error) {
	l := &Localizer{
		lang:         lang,
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := locales.ReadFile(path.Join("locales", file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[strings.TrimSuffix(file.Name(), ".json")] = translations
	}

	return l, nil
}

// Language returns the selected language code.
func (l *Localizer) Language() string {
	return l.lang
}

// GetString returns the text for key, falling back to English and then to
// the key itself.
func (l *Localizer) GetString(key string) string {
	if value, ok := l.translations[l.lang][key]; ok {
		return value
	}
	if value, ok := l.translations[fallbackLanguage][key]; ok {
		return value
	}
	return key
}

// Format resolves key and applies args to it.
func (l *Localizer) Format(key string, args ...any) string {
	return fmt.Sprintf(l.GetString(key), args...)
}
