package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cxxpp",
	Short: "A C/C++ lexer and preprocessor for analysis tooling",
	Long: `cxxpp is a CLI tool that tokenizes C/C++ source files and runs a full
preprocessing pass over them: macro expansion, conditional inclusion and
include resolution. It produces the directive-resolved token stream a
grammar parser or static-analysis rule engine consumes, together with
the diagnostics collected along the way.`,
	Version: getVersionString(),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cxxpp %s\n", getVersionString())
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Date:    %s\n", date)
	},
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return version
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(lexCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(versionCmd)
}
