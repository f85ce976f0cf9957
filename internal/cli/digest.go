package cli

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"

	"NewsDigest/internal/domain"
)

var plainText = bluemonday.StrictPolicy()

func newDigestCommand(rt Runtime, g *globals) *cobra.Command {
	var (
		mode     string
		keepHTML bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Run the pipeline once and print the digest",
		Long: `Run the pipeline once and print the digest.

Examples:
  newsdigest digest                       # Headline digest
  newsdigest digest --mode deep           # Full-text summaries
  newsdigest digest --mode multilingual   # Summaries with translations
  newsdigest digest --html                # Keep Telegram markup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := digestFor(domain.Mode(strings.ToLower(mode)))
			if err != nil {
				return err
			}
			return withDigests(cmd, rt, g, func(d Digests) error {
				out, err := run(d, cmd.Context())
				if err != nil {
					return err
				}
				if !keepHTML {
					out = toPlain(out)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeShort), "digest mode: short, deep or multilingual")
	cmd.Flags().BoolVar(&keepHTML, "html", false, "print Telegram HTML markup instead of plain text")
	return cmd
}

func digestFor(mode domain.Mode) (func(Digests, context.Context) (string, error), error) {
	switch mode {
	case domain.ModeShort:
		return Digests.ShortDigest, nil
	case domain.ModeDeep:
		return Digests.DeepDigest, nil
	case domain.ModeMultilingual:
		return Digests.MultilingualDigest, nil
	default:
		return nil, fmt.Errorf("unknown digest mode %q", mode)
	}
}

// toPlain drops the markup and decodes the entities left behind.
func toPlain(s string) string {
	return html.UnescapeString(plainText.Sanitize(s))
}
