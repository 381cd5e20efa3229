// Package sink persists finalized shop records to tabular storage.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

// row maps one record onto the fixed nine-column output layout.
type row struct {
	Name       string `csv:"店舗名"`
	Phone      string `csv:"電話番号"`
	Email      string `csv:"メールアドレス"`
	Prefecture string `csv:"都道府県"`
	City       string `csv:"市区町村"`
	Street     string `csv:"番地"`
	Building   string `csv:"建物名"`
	URL        string `csv:"URL"`
	SSL        string `csv:"SSL"`
}

// CSV writes records to a UTF-8 CSV file with a byte-order mark. The file
// is created lazily on the first append so an aborted or empty run leaves
// nothing behind.
type CSV struct {
	path string
	file *os.File
	w    *csv.Writer
	enc  *csvutil.Encoder
}

var _ scrape.RowSink = (*CSV)(nil)

// NewCSV prepares a sink at path, removing any output from a previous run.
func NewCSV(path string) (*CSV, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove previous output: %w", err)
	}
	return &CSV{path: path}, nil
}

// Append writes one record, creating the file with the BOM and header row
// first if needed. Rows are flushed as they are written.
func (c *CSV) Append(shop scrape.Shop) error {
	if c.file == nil {
		if err := c.create(); err != nil {
			return err
		}
	}

	r := row{
		Name:       shop.Name,
		Phone:      shop.Phone,
		Email:      shop.Email,
		Prefecture: shop.Prefecture,
		City:       shop.City,
		Street:     shop.Street,
		Building:   shop.Building,
		URL:        shop.WebsiteURL,
		SSL:        sslLabel(shop.IsSecure),
	}
	if err := c.enc.Encode(r); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

func (c *CSV) create() error {
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := f.WriteString("\uFEFF"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write byte-order mark: %w", err)
	}

	c.file = f
	c.w = csv.NewWriter(f)
	c.enc = csvutil.NewEncoder(c.w)
	if err := c.enc.EncodeHeader(row{}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}
	return nil
}

// Close flushes and closes the output file, if one was created.
func (c *CSV) Close() error {
	if c.file == nil {
		return nil
	}
	c.w.Flush()
	ferr := c.w.Error()
	cerr := c.file.Close()
	c.file = nil
	if ferr != nil {
		return fmt.Errorf("flush output: %w", ferr)
	}
	if cerr != nil {
		return fmt.Errorf("close output: %w", cerr)
	}
	return nil
}

// Remove discards the output written so far, closing the file first.
func (c *CSV) Remove() error {
	_ = c.Close()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output: %w", err)
	}
	return nil
}

func sslLabel(secure bool) string {
	if secure {
		return "True"
	}
	return "False"
}
