package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "health-record-vault",
	Short: "Patient-owned health records with sharing and signature verification.",
	Long: `health-record-vault stores health records owned by patients.
Patients share records with named users and emergency contacts, GPs submit
records for review, and issuers sign records so anyone with read access can
verify them.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", ".env", "config file path")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSignRecordCommand())
}
