package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

func sampleShop(secure bool) scrape.Shop {
	return scrape.Shop{
		Name:       "とり幸",
		Phone:      "03-1234-5678",
		Email:      "info@torikou.example.jp",
		Prefecture: "東京都",
		City:       "渋谷区神南",
		Street:     "1-20-3",
		Building:   "渋谷第一ビル 2F",
		WebsiteURL: "https://torikou.example.jp",
		IsSecure:   secure,
	}
}

func TestCSVWritesBOMHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	c, err := NewCSV(path)
	require.NoError(t, err)

	require.NoError(t, c.Append(sampleShop(true)))

	insecure := sampleShop(false)
	insecure.Name = "とり幸 分店"
	insecure.WebsiteURL = "http://torikou.example.jp"
	require.NoError(t, c.Append(insecure))
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.True(t, strings.HasPrefix(content, "\ufeff"), "output starts with the byte-order mark")

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(content, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "店舗名,電話番号,メールアドレス,都道府県,市区町村,番地,建物名,URL,SSL", lines[0])
	require.Contains(t, lines[1], "https://torikou.example.jp,True")
	require.Contains(t, lines[2], "http://torikou.example.jp,False")
}

func TestCSVCreatesFileLazily(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	c, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "a run with no records leaves no file")
}

func TestCSVRemoveDiscardsOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	c, err := NewCSV(path)
	require.NoError(t, err)

	require.NoError(t, c.Append(sampleShop(true)))
	require.NoError(t, c.Remove())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, c.Remove(), "removing twice is harmless")
}

func TestNewCSVClearsPreviousOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	_, err := NewCSV(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "output from a previous run is removed up front")
}
