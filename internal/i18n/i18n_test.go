package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Locales(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"", "en"},
		{"en", "en"},
		{"EN-us", "en"},
		{"zh_CN", "zh"},
		{"fr", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.locale, func(t *testing.T) {
			c, err := Load(tc.locale)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Locale())
		})
	}
}

func TestCatalog_AllKeysPresent(t *testing.T) {
	keys := []string{
		LoginPhoneEmpty, LoginPhoneIllegal, LoginIllegalCode,
		SendCodeLater, SendCodeLimit,
		MessageForwardSuccess, MessageForwardFail, MessageModifyFail,
	}
	for _, locale := range []string{"en", "zh"} {
		c := MustLoad(locale)
		for _, k := range keys {
			assert.NotEqual(t, k, c.String(k), "locale %s missing %s", locale, k)
		}
	}
}

func TestCatalog_MissingKey(t *testing.T) {
	c := MustLoad("en")
	assert.Equal(t, "no_such_key", c.String("no_such_key"))

	var nilCatalog *Catalog
	assert.Equal(t, LoginPhoneEmpty, nilCatalog.String(LoginPhoneEmpty))
}
