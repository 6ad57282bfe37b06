package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <source>",
	Short: "Validate an artifact without opening the viewer",
	Long: `Load and validate an artifact, reporting whether it conforms to the
feature-windows schema. Failures are labelled by kind so a network
problem is distinguishable from a corrupt or malformed file.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	loader := newLoader(nil)
	doc, err := runLoadPlain(context.Background(), loader, args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", failureKind(err), err)
	}

	examples := 0
	tokens := 0
	for _, e := range doc.Features {
		examples += len(e.Examples)
		for i := range e.Examples {
			tokens += len(e.Examples[i].Tokens)
		}
	}
	fmt.Printf("OK: %d features, %d examples, %d tokens\n",
		len(doc.Features), examples, tokens)
	return nil
}
