package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"cxxpp/pkg/lexer"

	"github.com/spf13/cobra"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a C/C++ source file without preprocessing",
	Long: `Tokenize a C/C++ source file and print the raw token sequence with
source coordinates. Directives are not interpreted; the output shows
exactly what the tokenizer sees.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}

		normalized, err := lexer.NormalizeSource(string(content))
		if err != nil {
			return fmt.Errorf("failed to decode file %s: %w", filename, err)
		}

		tokens := lexer.NewTokenizer(filename, normalized).Tokenize()

		trivia, _ := cmd.Flags().GetBool("trivia")
		if !trivia {
			var kept []lexer.Token
			for _, tok := range tokens {
				if !tok.IsTrivia() {
					kept = append(kept, tok)
				}
			}
			tokens = kept
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			return outputTokensJSON(tokens)
		default:
			return outputTokensHuman(tokens)
		}
	},
}

func init() {
	lexCmd.Flags().StringP("format", "f", "human", "Output format (human, json)")
	lexCmd.Flags().BoolP("trivia", "t", false, "Include whitespace and comment tokens")
}

// jsonToken is the wire shape of one token
type jsonToken struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func outputTokensJSON(tokens []lexer.Token) error {
	out := make([]jsonToken, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == lexer.TokenEOF {
			continue
		}
		out = append(out, jsonToken{
			Kind:   tok.String(),
			Value:  tok.Value,
			File:   tok.File,
			Line:   tok.Line,
			Column: tok.Column,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{"tokens": out})
}

func outputTokensHuman(tokens []lexer.Token) error {
	for _, tok := range tokens {
		if tok.Type == lexer.TokenEOF {
			continue
		}
		fmt.Printf("%s:%d:%d\t%s\n", tok.File, tok.Line, tok.Column, tok)
	}
	return nil
}
