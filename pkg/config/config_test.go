package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if c.Engine.Pair != "EUR/USD" {
		t.Fatalf("pair = %s, want EUR/USD", c.Engine.Pair)
	}
	if c.Engine.AnalysisInterval != 2*time.Minute {
		t.Fatalf("analysis interval = %v, want 2m", c.Engine.AnalysisInterval)
	}
	if c.Thresholds.MinBuyScore != 60 || c.Thresholds.MaxSellScore != 40 {
		t.Fatalf("score thresholds = %.0f/%.0f, want 60/40",
			c.Thresholds.MinBuyScore, c.Thresholds.MaxSellScore)
	}
	if c.Pacing.MaxSignalsPerHour != 12 {
		t.Fatalf("pacing = %d, want 12", c.Pacing.MaxSignalsPerHour)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  pair: GBP/USD
  fetch_mode: parallel
thresholds:
  min_buy_score: 65
pacing:
  max_signals_per_hour: 6
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Engine.Pair != "GBP/USD" {
		t.Fatalf("pair = %s, want GBP/USD", c.Engine.Pair)
	}
	if c.Engine.FetchMode != "parallel" {
		t.Fatalf("fetch mode = %s, want parallel", c.Engine.FetchMode)
	}
	if c.Thresholds.MinBuyScore != 65 {
		t.Fatalf("min buy score = %.0f, want 65", c.Thresholds.MinBuyScore)
	}
	if c.Pacing.MaxSignalsPerHour != 6 {
		t.Fatalf("pacing = %d, want 6", c.Pacing.MaxSignalsPerHour)
	}
	// Untouched sections still come from defaults.
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", c.Server.Port)
	}
}

func TestLoadRejectsSellBandAtMidpoint(t *testing.T) {
	path := writeConfig(t, `
thresholds:
  max_sell_score: 50
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for max_sell_score reaching the neutral midpoint")
	}
}

func TestLoadRejectsBadPair(t *testing.T) {
	path := writeConfig(t, `
engine:
  pair: EURUSD
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for pair without separator")
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	path := writeConfig(t, `
engine:
  interval: 7m
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported interval")
	}
}

func TestValidateAdvisoryRequiresURL(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	c.Advisory.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for advisory enabled without url")
	}
	c.Advisory.URL = "http://localhost:9000"
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateKafkaRequiresBrokers(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	c.Kafka.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for kafka enabled without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("TWELVE_DATA_API_KEY", "td-key")
	t.Setenv("PAIR", "USD/JPY")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Sources.TwelveData.APIKey != "td-key" {
		t.Fatalf("api key = %s, want td-key", c.Sources.TwelveData.APIKey)
	}
	if c.Engine.Pair != "USD/JPY" {
		t.Fatalf("pair = %s, want USD/JPY", c.Engine.Pair)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka = %v/%v, want enabled with 2 brokers", c.Kafka.Enabled, c.Kafka.Brokers)
	}
}
