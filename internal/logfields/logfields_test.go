package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Artifact", KeyArtifact, "/t/game", Artifact("/t/game")},
		{"Stage", KeyStage, "pack_vpk", Stage("pack_vpk")},
		{"Tool", KeyTool, "vita-pack-vpk", Tool("vita-pack-vpk")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Command", KeyCommand, "cargo build", Command("cargo build")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if got := c.attr.Value.String(); got != c.attrVal {
			t.Errorf("%s: value = %q, want %q", c.name, got, c.attrVal)
		}
	}
}

func TestError(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Errorf("Error(nil) = %q, want empty", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Errorf("Error() = %q, want boom", got)
	}
}
