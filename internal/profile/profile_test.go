package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfiles(t *testing.T) {
	profiles, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"genshin", "honkai"}, profiles.IDs())

	genshin, err := profiles.Get("genshin")
	require.NoError(t, err)
	assert.Equal(t, "genshin", genshin.ID)
	assert.Equal(t, "Genshin Impact", genshin.Name)
	assert.Equal(t, "Keqing", genshin.BotName)
	assert.Equal(t, "genshin-cache.json", genshin.CacheFile)
	assert.Equal(t, []string{DurationMarkup, DurationLabelled}, genshin.Codes.DurationFormats)
	assert.Equal(t, "https://genshin.hoyoverse.com/en/gift?code=GENSHINGIFT", genshin.ActivationLink("GENSHINGIFT"))
	assert.Equal(t, "table.wikitable", genshin.Selectors.Table)
	assert.Equal(t, "Expired:", genshin.Codes.ExpiredMarker)
	assert.True(t, genshin.HasEvents())

	honkai, err := profiles.Get("honkai")
	require.NoError(t, err)
	assert.Equal(t, "Honkai: Star Rail", honkai.Name)
	assert.Equal(t, []string{CleanFootnotes, CleanQuickRedeem}, honkai.Codes.CodeCleaners)
	assert.Equal(t, []string{RewriteThumbnail500}, honkai.Events.ImageRewriters)
	assert.Equal(t, DefaultStatuses, honkai.Events.Statuses)

	_, err = profiles.Get("zzz")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown game")
}

func TestParseAppliesDefaults(t *testing.T) {
	profiles, err := Parse([]byte(`
wuwa:
  name: Wuthering Waves
  base_url: https://wutheringwaves.fandom.com
  activate_url: https://example.com/redeem?code=
  codes:
    url: https://wutheringwaves.fandom.com/wiki/Redemption_Codes
  events:
    url: https://wutheringwaves.fandom.com/wiki/Events
`))
	require.NoError(t, err)

	p, err := profiles.Get("wuwa")
	require.NoError(t, err)
	assert.Equal(t, "wuwa-cache.json", p.CacheFile)
	assert.Equal(t, []int{0}, p.Codes.Tables)
	assert.Equal(t, []string{DurationLabelled, DurationMarkup}, p.Codes.DurationFormats)
	assert.Equal(t, DefaultStatuses, p.Events.Statuses)
	assert.Equal(t, "span.item", p.Selectors.RewardItem)
	assert.Equal(t, "tbody > tr:not(:first-child)", p.Selectors.Row)
}

func TestParseRejectsInvalidProfiles(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", ``, "no game profiles"},
		{"malformed", `genshin: [`, "failed to decode"},
		{"missing url", "genshin:\n  name: G\n  base_url: b\n  activate_url: a\n", "codes.url"},
		{
			"unknown cleaner",
			"genshin:\n  name: G\n  base_url: b\n  activate_url: a\n  codes:\n    url: u\n    code_cleaners: [shout]\n",
			`unknown value "shout"`,
		},
		{
			"unknown duration format",
			"genshin:\n  name: G\n  base_url: b\n  activate_url: a\n  codes:\n    url: u\n    duration_formats: [iso]\n",
			`unknown value "iso"`,
		},
		{
			"unknown status",
			"genshin:\n  name: G\n  base_url: b\n  activate_url: a\n  codes:\n    url: u\n  events:\n    url: e\n    statuses: [Ongoing]\n",
			`unknown value "Ongoing"`,
		},
		{
			"negative column",
			"genshin:\n  name: G\n  base_url: b\n  activate_url: a\n  codes:\n    url: u\n    columns:\n      rewards: -1\n",
			"negative index",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	profiles, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("genshin:\n  name: G\n  base_url: b\n  activate_url: a\n  codes:\n    url: u\n"), 0o644))

	profiles, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"genshin"}, profiles.IDs())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
