package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/saeviz/saeview/internal/index"
	"github.com/saeviz/saeview/internal/tui"
)

var (
	examplesSort  string
	examplesLimit int
)

var examplesCmd = &cobra.Command{
	Use:   "examples <source> <feature-id>",
	Short: "Print a feature's examples with activation highlighting",
	Long: `Load an artifact and print the examples of one feature, sorted
descending by relevance score or by mean activation in the highlight.
Active tokens are highlighted with intensity proportional to activation.

Examples:
  saeview examples windows.json.gz 42
  saeview examples windows.json.gz 42 --sort mean_act --limit 5`,
	Args: cobra.ExactArgs(2),
	RunE: runExamples,
}

func init() {
	examplesCmd.Flags().StringVarP(&examplesSort, "sort", "s", "score", "sort key: score, mean_act")
	examplesCmd.Flags().IntVarP(&examplesLimit, "limit", "n", 10, "max examples (0 = all)")
}

func runExamples(cmd *cobra.Command, args []string) error {
	featureID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid feature id %q", args[1])
	}
	var key index.ExampleSortKey
	switch index.ExampleSortKey(examplesSort) {
	case index.SortScore, index.SortMeanAct:
		key = index.ExampleSortKey(examplesSort)
	default:
		return fmt.Errorf("unknown sort key %q (want score or mean_act)", examplesSort)
	}

	loader := newLoader(nil)
	doc, err := runLoadPlain(context.Background(), loader, args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", failureKind(err), err)
	}

	ix := index.New(doc)
	examples, ok := ix.SortExamples(featureID, key)
	if !ok {
		fmt.Printf("Feature %d not found in document.\n", featureID)
		return nil
	}
	if examplesLimit > 0 && len(examples) > examplesLimit {
		examples = examples[:examplesLimit]
	}

	threshold := ix.Meta().ActivationThreshold
	theme := tui.DefaultTheme()
	for i, ex := range examples {
		fmt.Printf("[%d] score %.2f  peak %.2f  mean %.2f  max %.2f",
			i+1, ex.Score, ex.PeakActivation,
			ex.Highlight.MeanActInHighlight, ex.Highlight.MaxActInHighlight)
		if ex.ProblemID != nil {
			fmt.Printf("  problem %s", *ex.ProblemID)
		}
		if ex.TurnIndex != nil {
			fmt.Printf("  turn %d", *ex.TurnIndex)
		}
		if ex.SolutionStatus != nil {
			fmt.Printf("  status %s", *ex.SolutionStatus)
		}
		fmt.Println()
		fmt.Println(tui.RenderTokens(theme, ex, threshold))
		fmt.Println()
	}
	return nil
}
