package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saeviz/saeview/internal/index"
)

var (
	featuresSort   string
	featuresFilter string
	featuresLimit  int
)

var featuresCmd = &cobra.Command{
	Use:   "features [source]",
	Short: "List features with summary statistics",
	Long: `Load an artifact and list its features sorted descending by a summary
statistic. Features missing the chosen statistic sort as zero and show a
placeholder.

Examples:
  saeview features windows.json.gz
  saeview features windows.json.gz --sort mean_when_active
  saeview features windows.json.gz --filter 42 --limit 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVarP(&featuresSort, "sort", "s", "mention_rate",
		"sort key: mention_rate, mean_when_active, mean_all")
	featuresCmd.Flags().StringVarP(&featuresFilter, "filter", "f", "", "substring match on feature id")
	featuresCmd.Flags().IntVarP(&featuresLimit, "limit", "n", 50, "max rows (0 = all)")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	key, err := parseSortKey(featuresSort)
	if err != nil {
		return err
	}

	loader := newLoader(nil)
	doc, err := runLoadPlain(context.Background(), loader, sourceArg(args))
	if err != nil {
		return fmt.Errorf("%s: %w", failureKind(err), err)
	}

	ix := index.New(doc)
	entries := ix.FilterFeatures(key, featuresFilter)
	if len(entries) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	if featuresLimit > 0 && len(entries) > featuresLimit {
		entries = entries[:featuresLimit]
	}

	fmt.Printf("%8s  %10s  %10s  %10s  %8s\n", "feature", "mr", "mwa", "ma", "examples")
	for _, e := range entries {
		fmt.Printf("%8d  %10s  %10.4f  %10s  %8d\n",
			e.FeatureID, formatOptional(e.MentionRate), e.MeanWhenActive,
			formatOptional(e.MeanAll), e.NumExamples)
	}
	return nil
}

func parseSortKey(s string) (index.SortKey, error) {
	switch index.SortKey(s) {
	case index.SortMentionRate, index.SortMeanWhenActive, index.SortMeanAll:
		return index.SortKey(s), nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want mention_rate, mean_when_active, or mean_all)", s)
	}
}

// formatOptional renders a nullable statistic, using a placeholder when the
// value is genuinely absent.
func formatOptional(v *float64) string {
	if v == nil {
		return "–"
	}
	return fmt.Sprintf("%.4f", *v)
}
