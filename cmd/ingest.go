package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load content into stores",
}

var ingestTitle string

var ingestFileCmd = &cobra.Command{
	Use:   "file <store> <path>...",
	Short: "Upload local files into a store",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		storeID := args[0]
		for _, path := range args[1:] {
			docID, err := a.ingestor.File(cmd.Context(), storeID, path, ingestTitle)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			fmt.Printf("ingested %s into %s (document_id=%s)\n", path, storeID, docID)
		}
		return nil
	},
}

var ingestPageCmd = &cobra.Command{
	Use:   "page <store> <url>...",
	Short: "Extract web pages and upload their text into a store",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		storeID := args[0]
		for _, pageURL := range args[1:] {
			if _, err := a.ingestor.Page(cmd.Context(), storeID, pageURL); err != nil {
				return fmt.Errorf("ingesting %s: %w", pageURL, err)
			}
			fmt.Printf("ingested %s into %s\n", pageURL, storeID)
		}
		return nil
	},
}

func init() {
	ingestFileCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "display title (defaults to the file name)")

	ingestCmd.AddCommand(ingestFileCmd, ingestPageCmd)
	rootCmd.AddCommand(ingestCmd)
}
