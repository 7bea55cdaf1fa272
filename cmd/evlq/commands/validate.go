package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/payload"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <source_id> [file|-]",
	Short: "페이로드를 계약에 대해 검증",
	Long: `Validates a JSON payload against the contract of source_id and prints
the findings and quality score. Reads stdin when the file is "-" or omitted.

Example:
  go run ./cmd/evlq validate entsoe payload.json
  curl -s $URL | go run ./cmd/evlq validate openchargemap -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

var validateJSON bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	sourceID := args[0]

	var in io.Reader = os.Stdin
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open payload: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	data, err := payload.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.validator.ValidateSourceData(sourceID, data)
	if validateJSON {
		return PrintJSON(result)
	}

	PrintHeader("Validation: " + sourceID)
	if _, ok := a.registry.Get(sourceID); !ok {
		fmt.Println("  (no contract registered, payload accepted as-is)")
	}
	fmt.Printf("  Valid     : %s\n", PassMark(result.IsValid))
	fmt.Printf("  Score     : %.2f\n", result.QualityScore)
	fmt.Printf("  Findings  : %d\n", len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Println()
		tw := newTable()
		fmt.Fprintln(tw, "SEVERITY\tFIELD\tMESSAGE")
		for _, e := range result.Errors {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Severity, e.Field, e.Message)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
