package i18n_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"finitefield.org/listing-console/internal/i18n"
)

func TestResolveHonorsQValues(t *testing.T) {
	t.Parallel()

	b, err := i18n.Default()
	require.NoError(t, err)
	require.Equal(t, "en", b.Resolve("ja;q=0.8, en;q=0.9"))
	require.Equal(t, "ja", b.Resolve("fr-FR, de"))
	require.Equal(t, "en", b.Resolve("en-US,en;q=0.9"))
	require.Equal(t, "ja", b.Resolve(""))
	require.Equal(t, "ja", b.Resolve("en;q=0, ja;q=0.5"))
	require.Equal(t, "ja", b.Resolve("not a header;;"))
}

func TestTranslateFallsBack(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"locales/ja.yaml": {Data: []byte("greeting: \"こんにちは\"\nonly.ja: \"日本語\"\ncount: \"%d件\"\n")},
		"locales/en.yaml": {Data: []byte("greeting: \"Hello\"\n")},
	}
	b, err := i18n.Load(fsys, "locales", "ja", []string{"ja", "en"})
	require.NoError(t, err)

	require.Equal(t, "Hello", b.T("en", "greeting"))
	require.Equal(t, "日本語", b.T("en", "only.ja"))
	require.Equal(t, "missing.key", b.T("en", "missing.key"))
	require.Equal(t, "3件", b.Tf("ja", "count", 3))
	require.Equal(t, []string{"en", "ja"}, b.Supported())
}

func TestLoadRequiresFallback(t *testing.T) {
	t.Parallel()

	_, err := i18n.Load(fstest.MapFS{}, "locales", "ja", []string{"ja"})
	require.Error(t, err)
}

func TestEmbeddedCataloguesShareKeys(t *testing.T) {
	t.Parallel()

	b, err := i18n.Default()
	require.NoError(t, err)
	for _, key := range []string{"app.title", "validation.title", "error.timeout", "settings.level.DEBUG"} {
		require.NotEqual(t, key, b.T("ja", key))
		require.NotEqual(t, b.T("ja", key), b.T("en", key), key)
	}
}
