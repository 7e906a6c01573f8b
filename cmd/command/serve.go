package command

import (
	"health-record-vault/cmd/bootstrap"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var migrateOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New(bootstrap.Options{
				ConfigFile:     configFile,
				MigrateOnStart: migrateOnStart,
			})
			if err != nil {
				return err
			}
			return app.Run()
		},
	}

	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	return cmd
}
