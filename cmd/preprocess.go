package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cxxpp/pkg/config"
	"cxxpp/pkg/preprocessor"

	"github.com/spf13/cobra"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [files...]",
	Short: "Run the full preprocessing pass over one or more files",
	Long: `Run the full preprocessing pass over one or more translation units:
macro expansion, conditional inclusion and include resolution. Each file
is an independent translation unit with its own engine and macro state.

Settings come from a ` + config.FileName + ` file next to the sources, when
present; command-line flags override it. Diagnostics go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defines, _ := cmd.Flags().GetStringArray("define")
		includes, _ := cmd.Flags().GetStringArray("include-dir")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")
		keepComments, _ := cmd.Flags().GetBool("keep-comments")
		passthrough, _ := cmd.Flags().GetBool("pragma-passthrough")
		strict, _ := cmd.Flags().GetBool("strict")
		format, _ := cmd.Flags().GetString("format")

		failed := false
		sawErrors := false

		for _, filename := range args {
			engineCfg, fileStrict, err := buildEngineConfig(filename)
			if err != nil {
				return err
			}
			strictRun := strict || fileStrict

			for _, def := range defines {
				name, value := parseDefineFlag(def)
				if engineCfg.Defines == nil {
					engineCfg.Defines = make(map[string]string)
				}
				engineCfg.Defines[name] = value
			}
			engineCfg.SearchPaths = append(engineCfg.SearchPaths, includes...)
			if maxDepth > 0 {
				engineCfg.MaxIncludeDepth = maxDepth
			}
			if keepComments {
				engineCfg.KeepComments = true
			}
			if passthrough {
				engineCfg.PragmaPassthrough = true
			}

			engine := preprocessor.NewEngine(engineCfg)
			tokens, err := engine.Preprocess(filename)
			if err != nil {
				// Fatal for this unit only; keep going with the rest
				fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
				failed = true
				continue
			}

			for _, diag := range engine.Diagnostics() {
				fmt.Fprintln(os.Stderr, diag)
			}
			if engine.HasErrors() {
				sawErrors = true
				if strictRun {
					return fmt.Errorf("preprocessing %s produced errors", filename)
				}
			}

			switch format {
			case "json":
				if err := outputTokensJSON(tokens); err != nil {
					return err
				}
			default:
				if err := outputTokensHuman(tokens); err != nil {
					return err
				}
			}
		}

		if failed {
			return fmt.Errorf("one or more translation units could not be processed")
		}
		if strict && sawErrors {
			return fmt.Errorf("preprocessing produced errors")
		}
		return nil
	},
}

func init() {
	preprocessCmd.Flags().StringArrayP("define", "D", nil, "Predefine a macro (name or name=value, repeatable)")
	preprocessCmd.Flags().StringArrayP("include-dir", "I", nil, "Add a directory to the include search path (repeatable)")
	preprocessCmd.Flags().Int("max-depth", 0, "Maximum include nesting depth (0 = default)")
	preprocessCmd.Flags().Bool("keep-comments", false, "Keep comment tokens in the output stream")
	preprocessCmd.Flags().Bool("pragma-passthrough", false, "Emit unrecognized #pragma directives into the output")
	preprocessCmd.Flags().Bool("strict", false, "Fail when any error diagnostic is produced")
	preprocessCmd.Flags().StringP("format", "f", "human", "Output format (human, json)")
}

// buildEngineConfig loads the per-project configuration file, if any,
// from the directory of the translation unit.
func buildEngineConfig(filename string) (preprocessor.Config, bool, error) {
	dir := filepath.Dir(filename)

	fileCfg, err := config.Load(dir)
	if err != nil {
		return preprocessor.Config{}, false, err
	}
	if fileCfg == nil {
		return preprocessor.Config{}, false, nil
	}
	return fileCfg.Engine(dir), fileCfg.Strict, nil
}

// parseDefineFlag splits a -D argument into name and value. A bare
// name defines the macro as 1, like a compiler's -D.
func parseDefineFlag(arg string) (name, value string) {
	if idx := strings.IndexByte(arg, '='); idx >= 0 {
		return arg[:idx], arg[idx+1:]
	}
	return arg, ""
}
