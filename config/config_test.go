package config

import "testing"

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BitcoindAddr != defaultBitcoindAddr {
		t.Fatalf("expected default bitcoind addr, got %q", cfg.BitcoindAddr)
	}
	if cfg.Network != defaultNetwork {
		t.Fatalf("expected default network, got %q", cfg.Network)
	}
	if cfg.TxCacheByteSize != defaultTxCacheByteSize {
		t.Fatalf("expected default tx cache size, got %d", cfg.TxCacheByteSize)
	}
}

func TestParseRejectsUnknownNetwork(t *testing.T) {
	if _, err := Parse([]string{"--network", "bogusnet"}); err == nil {
		t.Fatalf("expected error for unknown network")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]string{"--bitcoind-addr", "10.0.0.1:9000", "--network", "testnet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BitcoindAddr != "10.0.0.1:9000" || cfg.Network != "testnet" {
		t.Fatalf("unexpected result: %+v", cfg)
	}
}

func TestLogFilePathsEmptyWhenDirUnset(t *testing.T) {
	cfg := &Config{}
	logFile, errLogFile := cfg.LogFilePaths()
	if logFile != "" || errLogFile != "" {
		t.Fatalf("expected empty paths, got %q %q", logFile, errLogFile)
	}
}
