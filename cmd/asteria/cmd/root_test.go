package cmd

import "testing"

func TestRootCommandRegistersPersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected a persistent %q flag on rootCmd", name)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"run", "lex", "parse", "air", "version", "repl"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected rootCmd to have a %q subcommand", name)
		}
	}
}
