package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/killergame/internal/model"
)

var sampleParams = map[string]string{
	model.ParamName:   "Alice",
	model.ParamTarget: "Bob",
	model.ParamKiller: "Carol",
	model.ParamWinner: "Alice",
	model.ParamCount:  "3",
	model.ParamPlayer: "Dave",
	model.ParamGrant:  "true",
}

func TestCatalogsGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, locale := range Locales() {
		t.Run(locale, func(t *testing.T) {
			r, err := New(locale)
			require.NoError(t, err)

			var sb strings.Builder
			for _, key := range model.AllMessageKeys {
				text, err := r.Render(key, sampleParams)
				require.NoError(t, err)
				fmt.Fprintf(&sb, "%s: %s\n", key, text)
			}
			g.Assert(t, locale, []byte(sb.String()))
		})
	}
}

func TestLocales(t *testing.T) {
	assert.Equal(t, []string{"en", "ru"}, Locales())
}

func TestEveryCatalogCoversEveryKey(t *testing.T) {
	for _, locale := range Locales() {
		templates, err := loadCatalog(locale)
		require.NoError(t, err)
		for _, key := range model.AllMessageKeys {
			assert.Contains(t, templates, key, "%s catalog is missing %s", locale, key)
		}
	}
}

func TestNewDefaultsToEnglish(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLocale, r.Locale())
}

func TestNewUnknownLocale(t *testing.T) {
	_, err := New("xx")
	assert.ErrorIs(t, err, ErrUnknownLocale)
}

func TestRenderUnknownKey(t *testing.T) {
	r, err := New("en")
	require.NoError(t, err)

	_, err = r.Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestRenderMissingParamsAreEmpty(t *testing.T) {
	r, err := New("en")
	require.NoError(t, err)

	text, err := r.Render(model.MsgWelcome, nil)
	require.NoError(t, err)
	assert.Equal(t, "Welcome! Register with a name to join the next round.", text)
}

func TestRenderRevoke(t *testing.T) {
	r, err := New("en")
	require.NoError(t, err)

	text, err := r.RenderOutcome(model.Reply(model.MsgAdminChanged, map[string]string{
		model.ParamPlayer: "Dave",
		model.ParamGrant:  "false",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Dave is no longer an admin.", text)
}
