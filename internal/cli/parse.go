package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fedibtc/fedicore/internal/metrics"
	"github.com/fedibtc/fedicore/internal/output"
	"github.com/fedibtc/fedicore/internal/parser"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// parseConcurrency bounds how many inputs of a batch are classified at once.
const parseConcurrency = 4

// maxStdinLine is the longest input line accepted from stdin. Ecash tokens
// can run to tens of kilobytes.
const maxStdinLine = 1 << 20

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	parseFederation string
	parseOrdered    bool
	parseOffline    bool
	parseQR         bool
	parseTimeout    time.Duration
)

// parseCmd classifies one or more inputs.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var parseCmd = &cobra.Command{
	Use:   "parse [input...]",
	Short: "Classify a pasted or scanned input",
	Long: `Classify inputs and print what they are: an invoice with its amount, an
LNURL with its resolved parameters, an address, an ecash token, an invite,
a chat link or a website.

Inputs that match nothing are reported as unknown and do not fail the
command. With no arguments, one input per line is read from stdin.

By default the first sub-parser to match wins. --ordered waits for every
sub-parser and picks the highest-priority match instead. --offline skips
everything that needs the network.`,
	Example: `  fedicore parse lnbc10u1p3...
  fedicore parse lightning:LNURL1DP68GURN8GHJ7...
  fedicore parse bitcoin:bc1q...?amount=0.0005 --federation fed11...
  fedicore parse fedi:room:!abc:m1.8fa.in::: --offline
  fedicore parse bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq --qr
  cat inputs.txt | fedicore parse -o json`,
	GroupID: groupClassify,
	RunE:    runParse,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseFederation, "federation", "", "active federation id (enables BIP21 and fee quotes)")
	parseCmd.Flags().BoolVar(&parseOrdered, "ordered", false, "resolve competing matches by priority instead of arrival")
	parseCmd.Flags().BoolVar(&parseOffline, "offline", false, "only run sub-parsers that need no network")
	parseCmd.Flags().BoolVar(&parseQR, "qr", false, "draw a QR code for a single scannable result")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 30*time.Second, "overall classification time limit")
}

func runParse(cmd *cobra.Command, args []string) error {
	inputs := args
	if len(inputs) == 0 {
		var err error
		if inputs, err = readInputs(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if len(inputs) == 0 {
		return fedierr.WithSuggestion(fedierr.ErrInvalidInput, "pass an input argument or pipe inputs on stdin")
	}

	ctx, cancel := contextWithTimeout(cmd, parseTimeout)
	defer cancel()

	cl, err := newClassifier(ctx, cfg, classifyOptions{
		FederationID: parseFederation,
		Ordered:      parseOrdered,
		Offline:      parseOffline,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		// Stop sub-parsers still racing so Close does not wait out their timeouts.
		cancel()
		if err := cl.Close(); err != nil {
			log.Warnf("closing classifier: %v", err)
		}
	}()

	results := classifyAll(ctx, cl.Parser, inputs)
	defer logMetrics()

	if len(results) == 1 {
		if err := output.RenderResult(formatter, results[0]); err != nil {
			return err
		}
		if parseQR {
			return renderResultQR(cmd, results[0])
		}
		return nil
	}
	return renderResults(formatter, results)
}

// classifyAll classifies inputs concurrently, keeping their order.
func classifyAll(ctx context.Context, p *parser.Parser, inputs []string) []parser.Result {
	results := make([]parser.Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseConcurrency)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = p.Classify(gctx, in)
			log.Debugf("classified input %d as %s", i, results[i].Type())
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// renderResults writes a batch as a JSON array or as text blocks separated
// by blank lines.
func renderResults(f *output.Formatter, results []parser.Result) error {
	if f.IsJSON() {
		envelopes := make([]parser.Envelope, 0, len(results))
		for _, r := range results {
			envelopes = append(envelopes, parser.ToEnvelope(r))
		}
		return f.Print(envelopes)
	}

	for i, r := range results {
		if i > 0 {
			outln(f.Writer())
		}
		if err := output.RenderResult(f, r); err != nil {
			return err
		}
	}
	return nil
}

func renderResultQR(cmd *cobra.Command, r parser.Result) error {
	payload, ok := output.QRPayload(r)
	if !ok {
		output.Warn(cmd.ErrOrStderr(), "%s has nothing to encode as a QR code", r.Type())
		return nil
	}
	w := cmd.OutOrStdout()
	if !output.CanRenderQR(w) {
		output.Warn(cmd.ErrOrStderr(), "QR codes are only drawn on a terminal")
		return nil
	}
	outln(w)
	return output.RenderQR(w, payload, output.DefaultQRConfig())
}

// readInputs reads one input per non-blank line.
func readInputs(r io.Reader) ([]string, error) {
	var inputs []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxStdinLine)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			inputs = append(inputs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fedierr.Wrap(fedierr.ErrInvalidInput, "reading stdin: %v", err)
	}
	return inputs, nil
}

func logMetrics() {
	s := metrics.Global.Snapshot()
	log.Debugf("metrics: classifications=%d sub_parser_errors=%d panics=%d lnurl_fetches=%d rpc_calls=%d cache_hits=%d cache_misses=%d",
		s.ClassificationsTotal, s.SubParserErrors, s.SubParserPanics, s.LNURLFetches,
		s.RPCCallsTotal, s.CacheHits, s.CacheMisses)
}
