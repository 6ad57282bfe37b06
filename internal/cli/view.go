package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/saeviz/saeview/internal/index"
	"github.com/saeviz/saeview/internal/ingest"
	"github.com/saeviz/saeview/internal/metrics"
	"github.com/saeviz/saeview/internal/model"
	"github.com/saeviz/saeview/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [source]",
	Short: "Load an artifact and open the interactive viewer",
	Long: `Load a feature-windows artifact and browse it interactively.

The source is a local file path or an HTTP(S) URL; when omitted, the
configured default URL is used. Gzip compression is detected from the
payload's leading bytes, regardless of file extension or content-encoding.

Examples:
  saeview view feature_windows_enhanced.json.gz
  saeview view https://example.org/data/feature_windows_enhanced.json.gz
  saeview view`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	source := sourceArg(args)
	ctx := context.Background()

	collector := metrics.NewCollector()
	loader := newLoader(collector)

	var session index.Session
	doc, err := loadInto(ctx, loader, source, &session)
	if err != nil {
		return err
	}

	logger.Debug("load metrics", "snapshot", collector.Snapshot())

	if len(doc.Features) == 0 {
		fmt.Println("Document loaded but contains no features.")
		return nil
	}

	return tui.Run(&session)
}

// newLoader builds the shared loader for CLI commands.
func newLoader(collector *metrics.Collector) *ingest.Loader {
	opts := []ingest.Option{
		ingest.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if collector != nil {
		opts = append(opts, ingest.WithMetrics(collector))
	}
	return ingest.NewLoader(logger, opts...)
}

// loadInto runs a load with the appropriate progress surface and publishes
// the result atomically. On failure the session keeps whatever document it
// held before.
func loadInto(ctx context.Context, loader *ingest.Loader, source string, session *index.Session) (doc *model.Document, err error) {
	if isTerminal() {
		doc, err = runLoadProgress(ctx, loader, source)
	} else {
		doc, err = runLoadPlain(ctx, loader, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failureKind(err), err)
	}
	session.Publish(index.New(doc))
	return doc, nil
}
