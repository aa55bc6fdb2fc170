// Package cmd contains the salus CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "salus",
	Short: "Salus - assistente AI per il sito dell'azienda sanitaria",
	Long: `Salus risponde alle domande degli utenti del sito dell'azienda
sanitaria usando i contenuti indicizzati nei file search store.

Comandi principali:
  serve    avvia il server HTTP dell'assistente
  stores   amministra gli store dei contenuti
  ingest   carica file e pagine web negli store`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
