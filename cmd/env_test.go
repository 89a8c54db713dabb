package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soprim/pricebot/internal/config"
	"github.com/soprim/pricebot/internal/model"
)

func TestSourceByName(t *testing.T) {
	tests := []struct {
		name string
		want model.Source
		ok   bool
	}{
		{"sufarmed", model.SourceSufarmed, true},
		{" Fanasa ", model.SourceFanasa, true},
		{"nadro", model.SourceNadro, true},
		{"difarmer", model.SourceDifarmer, true},
		{"base_interna", model.SourceCatalog, true},
		{"walmart", "", false},
	}
	for _, tt := range tests {
		src, ok := sourceByName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, src, tt.name)
	}
}

func TestMarginTableAndTimeouts(t *testing.T) {
	cfg = &config.Config{}
	cfg.Pricing.Margins = map[string]float64{
		"sufarmed":     45,
		"base_interna": 0,
		"walmart":      10,
	}
	cfg.Sources.Adapters = map[string]config.SourceConfig{
		"sufarmed": {TimeoutSecs: 60},
		"nadro":    {TimeoutSecs: 120},
		"fanasa":   {},
	}

	margins := marginTable()
	assert.Len(t, margins, 2)
	assert.InDelta(t, 45.0, margins[model.SourceSufarmed], 0.001)

	timeouts := sourceTimeouts()
	assert.Len(t, timeouts, 2)
	assert.Equal(t, 60*time.Second, timeouts[model.SourceSufarmed])
	assert.Equal(t, 120*time.Second, timeouts[model.SourceNadro])
}

func TestInitRegistrySkipsUnconfigured(t *testing.T) {
	cfg = &config.Config{}
	cfg.Sources.Adapters = map[string]config.SourceConfig{
		"sufarmed": {Bin: "/opt/scrapers/sufarmed"},
		"fanasa":   {},
		"walmart":  {Bin: "/opt/scrapers/walmart"},
	}

	registry := initRegistry(nil)
	assert.NotNil(t, registry.Get(model.SourceSufarmed))
	assert.Nil(t, registry.Get(model.SourceFanasa))
	assert.Len(t, registry.List(), 1)
}

func TestInitCatalogDisabledWithoutURL(t *testing.T) {
	cfg = &config.Config{}
	assert.Nil(t, initCatalog())

	cfg.Catalog.FeedURL = "https://feeds.example.com/precios.csv"
	cfg.Catalog.TTLSecs = 300
	assert.NotNil(t, initCatalog())
}

func TestInitStoreSQLite(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))
}

func TestInitStoreUnknownDriver(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "mysql"

	_, err := initStore(context.Background())
	assert.Error(t, err)
}
