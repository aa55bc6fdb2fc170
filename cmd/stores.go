package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Administer content stores",
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this deployment's stores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		stores, err := a.admin.ListStores(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing stores: %w", err)
		}

		if len(stores) == 0 {
			fmt.Println("no stores found")
			return nil
		}
		for _, s := range stores {
			fmt.Printf("%-20s %5d docs  %s\n", s.ID, s.DocumentCount, s.Name)
		}
		return nil
	},
}

var storeDescription string

var storesCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a store (extras need --description for routing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		handle, err := a.admin.CreateStore(cmd.Context(), args[0], storeDescription)
		if err != nil {
			return fmt.Errorf("creating store %s: %w", args[0], err)
		}
		fmt.Printf("created %s (%s)\n", handle.ID, handle.Name)
		return nil
	},
}

var storesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a store and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.admin.DeleteStore(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting store %s: %w", args[0], err)
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var storesDocsCmd = &cobra.Command{
	Use:   "docs <id>",
	Short: "List the documents of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), newLogger(false))
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.admin.ListDocuments(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("listing documents of %s: %w", args[0], err)
		}

		if len(docs) == 0 {
			fmt.Println("no documents found")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%-40s %s\n", d.DisplayName, d.Name)
			if url := d.Metadata["url"]; url != "" {
				fmt.Printf("  %s\n", url)
			}
		}
		return nil
	},
}

func init() {
	storesCreateCmd.Flags().StringVarP(&storeDescription, "description", "d", "", "routing description shown to the classifier")

	storesCmd.AddCommand(storesListCmd, storesCreateCmd, storesDeleteCmd, storesDocsCmd)
	rootCmd.AddCommand(storesCmd)
}
