package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(map[string]any{
		"uri": "https://r.example.jp/tokyo/rs/",
	}))
	require.NoError(t, err)

	require.Equal(t, BackendStatic, cfg.Backend)
	require.Equal(t, "results.csv", cfg.Output)
	require.Equal(t, MaxShops, cfg.Shops)
	require.Equal(t, 90, cfg.TimeoutSeconds)
	require.Equal(t, 3, cfg.Retry)
	require.False(t, cfg.Headful)
	require.NotEmpty(t, cfg.UserAgent)
	require.Equal(t, "file:///opt/go/static/html/", cfg.Staging.FixturePrefix)
}

func TestLoadClampsShopLimit(t *testing.T) {
	for _, shops := range []int{0, -1, 51, 999} {
		cfg, err := Load(newViper(map[string]any{
			"uri":   "https://r.example.jp/tokyo/rs/",
			"shops": shops,
		}))
		require.NoError(t, err)
		require.Equal(t, MaxShops, cfg.Shops, "shops=%d falls back to the maximum", shops)
	}

	cfg, err := Load(newViper(map[string]any{
		"uri":   "https://r.example.jp/tokyo/rs/",
		"shops": 7,
	}))
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Shops)
}

func TestLoadRequiresURI(t *testing.T) {
	_, err := Load(newViper(nil))
	require.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(newViper(map[string]any{
		"uri":     "https://r.example.jp/tokyo/rs/",
		"backend": "curl",
	}))
	require.Error(t, err)
}

func TestValidateBounds(t *testing.T) {
	base := Config{
		URI:            "https://r.example.jp/tokyo/rs/",
		Backend:        BackendBrowser,
		Output:         "results.csv",
		Shops:          10,
		TimeoutSeconds: 90,
		Retry:          3,
	}
	require.NoError(t, base.Validate())

	noTimeout := base
	noTimeout.TimeoutSeconds = 0
	require.Error(t, noTimeout.Validate())

	noRetry := base
	noRetry.Retry = 0
	require.Error(t, noRetry.Validate())

	noOutput := base
	noOutput.Output = ""
	require.Error(t, noOutput.Validate())
}

func TestTimeoutConversion(t *testing.T) {
	cfg := Config{TimeoutSeconds: 90}
	require.Equal(t, "1m30s", cfg.Timeout().String())
}
