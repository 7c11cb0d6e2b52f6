// Package i18n provides the localized user-facing strings shown by the client.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Message keys.
const (
	LoginPhoneEmpty       = "login_phone_empty"
	LoginPhoneIllegal     = "login_phone_illegal"
	LoginIllegalCode      = "login_illegal_code"
	SendCodeLater         = "send_code_later"
	SendCodeLimit         = "send_code_limit"
	MessageForwardSuccess = "message_forward_success"
	MessageForwardFail    = "message_forward_fail"
	MessageModifyFail     = "message_modify_fail"
)

// DefaultLocale is used when the requested locale has no catalog.
const DefaultLocale = "en"

//go:embed messages/*.yaml
var catalogs embed.FS

// Catalog maps message keys to localized strings.
type Catalog struct {
	locale  string
	strings map[string]string
}

// Load reads the catalog for locale, falling back to DefaultLocale.
// Region suffixes are ignored: "zh-CN" and "zh_CN" both load "zh".
func Load(locale string) (*Catalog, error) {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" {
		lang = DefaultLocale
	}

	data, err := catalogs.ReadFile("messages/" + lang + ".yaml")
	if err != nil {
		if lang == DefaultLocale {
			return nil, fmt.Errorf("read catalog %q: %w", lang, err)
		}
		return Load(DefaultLocale)
	}

	m := map[string]string{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", lang, err)
	}
	return &Catalog{locale: lang, strings: m}, nil
}

// MustLoad is Load for callers that cannot proceed without strings.
func MustLoad(locale string) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Locale returns the language the catalog was loaded for.
func (c *Catalog) Locale() string {
	return c.locale
}

// String returns the localized text for key, or key itself when missing.
func (c *Catalog) String(key string) string {
	if c == nil {
		return key
	}
	if s, ok := c.strings[key]; ok {
		return s
	}
	return key
}
