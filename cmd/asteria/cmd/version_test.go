package cmd

import (
	"strings"
	"testing"
)

func TestVersionCommandPrintsVersionFields(t *testing.T) {
	out := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})
	for _, want := range []string{Version, GitCommit, BuildDate} {
		if !strings.Contains(out, want) {
			t.Errorf("version output = %q, want it to contain %q", out, want)
		}
	}
}
