// Package recuerdocmder
package recuerdocmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/recuerdo-dev/recuerdo/cmd/recuerdo/config"
	servecmder "github.com/recuerdo-dev/recuerdo/cmd/recuerdo/serve"
	versioncmder "github.com/recuerdo-dev/recuerdo/cmd/version"
)

const recuerdoLongDesc string = `Recuerdo is a persistent memory server for agents.

It stores free-text memories alongside their embeddings, answers
semantic similarity queries, and keeps a single user biography record,
all exposed as MCP tools over stdio or HTTP.

Run the server using:
  recuerdo serve               Serve MCP over stdio
  recuerdo serve --listen :8080   Serve MCP over HTTP`

const recuerdoShortDesc string = "Recuerdo - Persistent Agent Memory"

func NewRecuerdoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recuerdo",
		Short: recuerdoShortDesc,
		Long:  recuerdoLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .recuerdo directory location")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
