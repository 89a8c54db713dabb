// Package catalog keeps the pharmacy's own inventory in memory behind a
// TTL cache and answers fuzzy product lookups against it.
package catalog

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/fetcher"
	"github.com/soprim/pricebot/internal/model"
)

// Feed loads the full internal catalog from wherever the pharmacy publishes
// it.
type Feed interface {
	Load(ctx context.Context) ([]model.CatalogEntry, error)
}

// Column headers the pharmacy's exports use. Matching is case-insensitive
// and tolerates the singular/plural existence variants.
var headerAliases = map[string]string{
	"descripcion": "description",
	"clave":       "code",
	"laboratorio": "lab",
	"registro":    "registration",
	"precio":      "price",
	"existencia":  "stock",
	"existencias": "stock",
}

func mapHeader(row []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range row {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := headerAliases[key]; ok {
			cols[field] = i
		}
	}
	return cols
}

func rowsToEntries(rows [][]string) ([]model.CatalogEntry, error) {
	if len(rows) == 0 {
		return nil, eris.New("catalog: empty feed")
	}

	cols := mapHeader(rows[0])
	if _, ok := cols["description"]; !ok {
		return nil, eris.New("catalog: feed header missing DESCRIPCION column")
	}

	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entries := make([]model.CatalogEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		e := model.CatalogEntry{
			Description:  cell(row, "description"),
			Code:         cell(row, "code"),
			Lab:          cell(row, "lab"),
			Registration: cell(row, "registration"),
			PriceRaw:     cell(row, "price"),
			StockRaw:     cell(row, "stock"),
		}
		if e.Description == "" {
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// CSVFeed downloads a CSV catalog export.
type CSVFeed struct {
	fetcher fetcher.Fetcher
	url     string
}

func NewCSVFeed(f fetcher.Fetcher, url string) *CSVFeed {
	return &CSVFeed{fetcher: f, url: url}
}

func (f *CSVFeed) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	body, err := f.fetcher.Download(ctx, f.url)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: download feed")
	}
	defer body.Close() //nolint:errcheck

	rows, err := fetcher.ReadCSV(body, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, eris.Wrap(err, "catalog: parse feed")
	}

	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Info("catalog feed loaded",
		zap.String("url", f.url),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// XLSXFeed downloads an XLSX catalog export. The file lands in a temp file
// first because the xlsx reader needs a seekable path.
type XLSXFeed struct {
	fetcher fetcher.Fetcher
	url     string
	sheet   string
}

func NewXLSXFeed(f fetcher.Fetcher, url, sheet string) *XLSXFeed {
	return &XLSXFeed{fetcher: f, url: url, sheet: sheet}
}

func (f *XLSXFeed) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	tmp, err := os.CreateTemp("", "catalog-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "catalog: temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close() //nolint:errcheck
	defer os.Remove(tmpPath)

	if _, err := f.fetcher.DownloadToFile(ctx, f.url, tmpPath); err != nil {
		return nil, eris.Wrap(err, "catalog: download feed")
	}

	rows, err := fetcher.ReadXLSX(tmpPath, fetcher.XLSXOptions{SheetName: f.sheet})
	if err != nil {
		return nil, eris.Wrap(err, "catalog: parse feed")
	}

	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Info("catalog feed loaded",
		zap.String("url", f.url),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}
