package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

var mapCmd = needsStore(&cobra.Command{
	Use:   "map [in-level] [out-level] [value...]",
	Short: "Map records from one level to another",
	Long: `Finds the records at out-level related to the given records at in-level.
Levels: sentence, paragraph, document, occurrence, url.

Values identify input records by --in-type (default hash, url for the url
level, id for occurrences). With no values every input record is mapped.
Use - as the only value to read values from stdin, one per line.

Examples:
  # Documents containing a sentence
  docstore map sentence document 5d41402abc4b2a76b9719d911017c592

  # Urls of every document containing a sentence, with the input hash
  docstore map sentence url --over document --origin 5d41402abc4b2a76`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMap,
})

var mapFlags struct {
	over   string
	inType string
	origin bool
}

func init() {
	mapCmd.Flags().StringVar(&mapFlags.over, "over", "", "intermediate level")
	mapCmd.Flags().StringVar(&mapFlags.inType, "in-type", "", "column of in-level the values refer to")
	mapCmd.Flags().StringSlice("out", []string{"id"}, "columns of out-level to print")
	mapCmd.Flags().BoolVar(&mapFlags.origin, "origin", false, "include the input value in each row")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	in, err := domain.ParseLevel(args[0])
	if err != nil {
		return err
	}
	out, err := domain.ParseLevel(args[1])
	if err != nil {
		return err
	}

	outTypes, err := cmd.Flags().GetStringSlice("out")
	if err != nil {
		return err
	}

	values := args[2:]
	if len(values) == 1 && values[0] == "-" {
		if values, err = readValues(cmd); err != nil {
			return err
		}
	}

	req := domain.MappingRequest{
		Values:        values,
		InType:        mapFlags.inType,
		OutTypes:      outTypes,
		InLevel:       in,
		OutLevel:      out,
		IncludeOrigin: mapFlags.origin,
	}
	if req.InType == "" {
		req.InType = in.DefaultColumn()
	}
	if mapFlags.over != "" {
		over, err := domain.ParseLevel(mapFlags.over)
		if err != nil {
			return err
		}
		req.OverLevel = domain.Via(over)
	}

	rows, err := mappingService.GetMappedLevels(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("mapping failed: %w", err)
	}

	headers := make([]string, 0, len(req.OutTypes)+1)
	if req.IncludeOrigin {
		headers = append(headers, domain.Col(in.Table(), req.InType).String())
	}
	for _, t := range req.OutTypes {
		headers = append(headers, domain.OutKey(domain.Col(out.Table(), t)))
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(headers))
		for j, h := range headers {
			cells[i][j] = row[h]
		}
	}
	return writeRows(cmd.OutOrStdout(), headers, cells)
}

func readValues(cmd *cobra.Command) ([]string, error) {
	var values []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if v := strings.TrimSpace(scanner.Text()); v != "" {
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	if len(values) == 0 {
		return nil, errors.New("no values on stdin")
	}
	return values, nil
}
