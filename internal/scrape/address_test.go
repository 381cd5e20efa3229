package scrape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		prefecture string
		city       string
		street     string
	}{
		{
			name:       "tokyo metropolitan form",
			raw:        "東京都渋谷区神南1丁目20-3",
			prefecture: "東京都",
			city:       "渋谷区神南",
			street:     "1丁目20-3",
		},
		{
			name:       "hokkaido form",
			raw:        "北海道札幌市中央区南3条西4丁目",
			prefecture: "北海道",
			city:       "札幌市中央区南",
			street:     "3条西4丁目",
		},
		{
			name:       "fu suffix form",
			raw:        "大阪府大阪市北区梅田1-1-3",
			prefecture: "大阪府",
			city:       "大阪市北区梅田",
			street:     "1-1-3",
		},
		{
			name:       "kyoto fu form",
			raw:        "京都府京都市中京区河原町2-5",
			prefecture: "京都府",
			city:       "京都市中京区河原町",
			street:     "2-5",
		},
		{
			name:       "three character ken form",
			raw:        "神奈川県横浜市西区みなとみらい2-2-1",
			prefecture: "神奈川県",
			city:       "横浜市西区みなとみらい",
			street:     "2-2-1",
		},
		{
			name:       "prefecture omitted",
			raw:        "渋谷区神南1-2-3",
			prefecture: "",
			city:       "渋谷区神南",
			street:     "1-2-3",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			addr, err := ParseAddress(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.prefecture, addr.Prefecture)
			require.Equal(t, tc.city, addr.City)
			require.Equal(t, tc.street, addr.Street)
			require.Equal(t, tc.raw, addr.Prefecture+addr.City+addr.Street,
				"the three parts must reassemble into the raw input")
		})
	}
}

func TestParseAddressRejectsUnstructuredInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "東京都渋谷区", "住所不明"} {
		_, err := ParseAddress(raw)
		require.Error(t, err, "raw=%q", raw)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		require.Equal(t, raw, perr.Raw)
	}
}
