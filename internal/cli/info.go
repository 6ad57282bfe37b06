package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [source]",
	Short: "Print artifact metadata",
	Long: `Load an artifact and print its document-level metadata: source model,
layer, SAE identifiers, activation threshold, window sizing, and the
filter configuration it was generated with.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	source := sourceArg(args)
	loader := newLoader(nil)

	doc, err := runLoadPlain(context.Background(), loader, source)
	if err != nil {
		return fmt.Errorf("%s: %w", failureKind(err), err)
	}

	m := doc.Meta
	fmt.Printf("Model:       %s\n", m.ModelPath)
	fmt.Printf("Layer:       %d\n", m.Layer)
	fmt.Printf("SAE:         %s / %s\n", m.SAERelease, m.SAEID)
	fmt.Printf("Features:    %d\n", len(doc.Features))
	fmt.Printf("Threshold:   %v\n", m.ActivationThreshold)
	fmt.Printf("Window:      %d (buf: %d, min active: %d)\n",
		m.MaxWindowWidth, m.BufferTokens, m.MinActiveWidth)
	fmt.Printf("Max ex/feat: %d\n", m.MaxExamplesPerFeature)
	fmt.Printf("Max tok/turn: %d\n", m.MaxTokensPerTurn)
	f := m.Filters
	fmt.Printf("Filters:     only_correct=%t only_with_answers=%t only_selected=%t turn=%q max_attempts=%d\n",
		f.OnlyCorrect, f.OnlyWithAnswers, f.OnlySelected, f.Turn, f.MaxAttempts)
	return nil
}
