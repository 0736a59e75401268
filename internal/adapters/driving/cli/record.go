package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Look up document, paragraph and sentence records",
}

var recordGetCmd = needsStore(&cobra.Command{
	Use:   "get [level] [hash]",
	Short: "Show a record by hash, or by id with --id",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordGet,
})

var recordContentCmd = needsStore(&cobra.Command{
	Use:   "content [level] [hash]",
	Short: "Write a record's stored bytes to stdout",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordContent,
})

var recordByID bool

func init() {
	recordGetCmd.Flags().BoolVar(&recordByID, "id", false, "treat the second argument as a record id")

	recordCmd.AddCommand(recordGetCmd)
	recordCmd.AddCommand(recordContentCmd)
	rootCmd.AddCommand(recordCmd)
}

func runRecordGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	level, err := domain.ParseLevel(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	var rec *domain.Record
	if recordByID {
		id, perr := strconv.ParseInt(args[1], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid record id %q", args[1])
		}
		rec, err = documentService.GetRecordByID(ctx, level, id)
	} else {
		rec, err = documentService.GetRecord(ctx, level, args[1])
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	cmd.Printf("%s %d %s\n", rec.Level, rec.ID, rec.Hash)
	return nil
}

func runRecordContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	level, err := domain.ParseLevel(args[0])
	if err != nil {
		return err
	}

	data, err := documentService.GetBinaryRecord(commandContext(cmd), level, args[1])
	if err != nil {
		return fmt.Errorf("failed to read record content: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
