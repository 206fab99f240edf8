package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string, perm os.FileMode) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "botho.yaml")
	if err := os.WriteFile(path, []byte(contents), perm); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Network.GossipPort != 7770 {
		t.Fatalf("expected default gossip port 7770, got %d", cfg.Network.GossipPort)
	}
	if cfg.Network.Quorum.Mode != QuorumModeRecommended {
		t.Fatalf("expected default quorum mode recommended, got %s", cfg.Network.Quorum.Mode)
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := writeConfig(t, "network:\n  gossip_port: 9000\n", 0o600)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Network.GossipPort != 9000 {
		t.Fatalf("expected gossip port 9000 from file, got %d", cfg.Network.GossipPort)
	}
}

func TestExplicitQuorumRequiresMembers(t *testing.T) {
	path := writeConfig(t, "network:\n  quorum:\n    mode: explicit\n", 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when quorum.mode=explicit has no members")
	}
}

func TestMintingRequiresMnemonic(t *testing.T) {
	path := writeConfig(t, "minting:\n  enabled: true\n", 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when minting is enabled without a wallet mnemonic")
	}
}

func TestUnknownQuorumModeRejected(t *testing.T) {
	path := writeConfig(t, "network:\n  quorum:\n    mode: bogus\n", 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized quorum mode")
	}
}

func TestWorldReadablePermissionsWarnButDoNotFail(t *testing.T) {
	path := writeConfig(t, "", 0o644)
	if _, err := Load(path); err != nil {
		t.Fatalf("a world-readable config file must warn, not fail to load: %v", err)
	}
}
