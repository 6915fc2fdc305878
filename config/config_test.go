package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"JDICT_LISTEN_ADDR", "JDICT_STORE", "JDICT_CACHE_SIZE", "JDICT_TELEMETRY", "JDICT_REDIS_TTL"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.ListenAddr != ":8080" || c.Store != StoreMemory || c.CacheSize != 4096 || c.LookupLimit != 10 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Telemetry {
		t.Error("telemetry should default to off")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JDICT_STORE", "SQLite")
	t.Setenv("JDICT_SQLITE_PATH", "/tmp/jd.db")
	t.Setenv("JDICT_REDIS_TTL", "90s")
	t.Setenv("JDICT_CACHE_SIZE", "not-a-number")
	t.Setenv("JDICT_TELEMETRY", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	c := Load()
	if c.Store != StoreSQLite || c.SQLitePath != "/tmp/jd.db" {
		t.Errorf("unexpected store config: %+v", c)
	}
	if c.RedisTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %v", c.RedisTTL)
	}
	if c.CacheSize != 4096 {
		t.Errorf("invalid int should fall back to default, got %d", c.CacheSize)
	}
	if !c.Telemetry || c.OTLPEndpoint != "collector:4317" {
		t.Errorf("expected telemetry to collector:4317, got %v %q", c.Telemetry, c.OTLPEndpoint)
	}
}

func TestValidate(t *testing.T) {
	c := &Config{ListenAddr: ":8080", Store: "postgres", CacheSize: 0, LookupLimit: 1, TokenizeMode: "wakati"}
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"store", "cacheSize", "tokenizeMode"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %s in error: %v", field, err)
		}
	}

	c = &Config{ListenAddr: ":8080", Store: StoreMongo, CacheSize: 1, LookupLimit: 1, TokenizeMode: "normal"}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "mongoURI") {
		t.Errorf("expected mongoURI error, got %v", err)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := NewValidator().RequireNonEmpty("a", "x").RequirePositive("b", 3).ValidateOneOf("c", "y", "x", "y")
	if v.HasErrors() || v.Error() != nil {
		t.Errorf("expected no errors, got %v", v.Errors())
	}
	v.RequireNonEmpty("d", " ")
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "d" {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
