package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# Options backtester configuration

[backtest]
initial_capital = 50000.0
risk_free_rate = 0.05
volatility = 0.20
days_to_expiration = 30
max_shares = 500
max_contracts = 500
profit_threshold = 50.0
strike_offset_percent = 0.05

[data]
# provider: "csv" or "alphavantage"
provider = "csv"
dir = "data"
spread_percent = 0.0005
cache_enabled = true
# alpha_vantage_api_key = ""   # or set ALPHA_VANTAGE_API_KEY

[ui]
color_enabled = true
date_format = "2006-01-02"

[logging]
level = "info"
console = true
file = true
`

// writeTemplateConfig writes a commented default config.toml so users
// have something to edit on first run.
func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
