package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

// Init builds the shared bundle with the embedded pt-BR and en catalogs.
// Calling it again resets any messages added through Load.
func Init() {
	b := goi18n.NewBundle(language.BrazilianPortuguese)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err == nil {
		for _, e := range entries {
			// embedded catalogs are part of the build; a parse error is a programming error
			if _, err := b.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
				panic(fmt.Sprintf("i18n: embedded catalog %s: %v", e.Name(), err))
			}
		}
	}

	mu.Lock()
	bundle = b
	mu.Unlock()
}

// Load adds an extra message file, e.g. active.es.json, on top of the
// embedded catalogs.
func Load(path string) error {
	b := current()
	if _, err := b.LoadMessageFile(path); err != nil {
		return fmt.Errorf("load locale %s: %w", path, err)
	}
	return nil
}

// Localizer resolves message ids for one preferred language, falling back
// to pt-BR.
type Localizer struct {
	l *goi18n.Localizer
}

func NewLocalizer(langs ...string) *Localizer {
	return &Localizer{l: goi18n.NewLocalizer(current(), langs...)}
}

// T returns the translated message, or the id itself when no catalog has it.
func (l *Localizer) T(id string, data map[string]any) string {
	msg, err := l.l.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

func current() *goi18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b != nil {
		return b
	}
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return bundle
}
