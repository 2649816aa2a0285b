package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeEnv(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if config.Reservation.HoldTTL != 5*time.Minute {
		t.Fatalf("expected default hold TTL 5m, got %s", config.Reservation.HoldTTL)
	}
	if config.Reservation.SweepInterval != 30*time.Second {
		t.Fatalf("expected default sweep interval 30s, got %s", config.Reservation.SweepInterval)
	}
	if config.Broker.Driver != "none" || config.Broker.KafkaTopic != "booking-events" {
		t.Fatalf("unexpected broker defaults %+v", config.Broker)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeEnv(t,
		"STORAGE_DRIVER=memory",
		"HOLD_TTL=90s",
		"SWEEP_WORKERS=8",
		"BROKER_DRIVER=kafka",
		"KAFKA_BROKERS=k1:9092, k2:9092,",
	)
	t.Setenv("SWEEP_WORKERS", "2")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if config.App.StorageDriver != "memory" {
		t.Fatalf("expected memory driver, got %q", config.App.StorageDriver)
	}
	if config.Reservation.HoldTTL != 90*time.Second {
		t.Fatalf("expected 90s hold TTL, got %s", config.Reservation.HoldTTL)
	}
	if config.Reservation.SweepWorkers != 2 {
		t.Fatalf("expected environment to win, got %d workers", config.Reservation.SweepWorkers)
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(config.Broker.KafkaBrokers, want) {
		t.Fatalf("expected brokers %v, got %v", want, config.Broker.KafkaBrokers)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "unknown storage", lines: []string{"STORAGE_DRIVER=mongo"}},
		{name: "unknown broker", lines: []string{"BROKER_DRIVER=nats"}},
		{name: "kafka without brokers", lines: []string{"BROKER_DRIVER=kafka"}},
		{name: "non-positive ttl", lines: []string{"HOLD_TTL=0s"}},
		{name: "cache without redis", lines: []string{"CACHE_ENABLED=true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeEnv(t, tt.lines...)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
