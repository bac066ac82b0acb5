package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
)

// writeOutput writes v as JSON when --output json is set, otherwise through
// text.
func writeOutput(cmd *cobra.Command, v any, text func(io.Writer) error) error {
	format, err := output.ParseFormat(flagOutput)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.WriteJSON(cmd.OutOrStdout(), v)
	}
	return text(cmd.OutOrStdout())
}
