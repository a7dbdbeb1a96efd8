package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestConfigShow(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	out, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"logging.level: INFO", "storage.persist: true", "en  English", "tr  Turkish"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("polyglot", "config.yaml")) {
		t.Errorf("unexpected path output: %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := executeCommand(rootCmd, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Errorf("unexpected init output: %q", out)
	}

	// A second init must refuse to clobber the file.
	if _, err := executeCommand(rootCmd, "config", "init"); err == nil {
		t.Fatal("second init should fail")
	}
}
