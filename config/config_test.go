package config_test

import (
	"testing"

	"github.com/effective-security/toolbelt/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Tools)
	assert.Nil(t, cfg.Tool("weather_data"))

	cfg, err = config.Load("testdata/tools.yaml")
	require.NoError(t, err)
	require.Len(t, cfg.Tools, 2)

	gh := cfg.Tool("github_repo")
	require.NotNil(t, gh)
	assert.True(t, gh.Disabled)

	w := cfg.Tool("weather_data")
	require.NotNil(t, w)
	assert.False(t, w.Disabled)
	assert.Equal(t, "Returns current weather for a city.", w.Description)

	assert.Nil(t, cfg.Tool("invoice_parser"))

	var nilCfg *config.Config
	assert.Nil(t, nilCfg.Tool("weather_data"))

	_, err = config.Load("testdata/missing.yaml")
	assert.Error(t, err)
}
