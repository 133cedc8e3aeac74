// Package configcmder provides the config command for managing persistent
// recuerdo configuration stored in the .recuerdo/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent recuerdo configuration.

Configuration is stored as config.toml in the .recuerdo/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  serve.listen, storage.sqlite_path,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions

Use subcommands to get, set, or list configuration values:
  recuerdo config set <key> <value>    Set a configuration value
  recuerdo config get <key>            Get a configuration value
  recuerdo config list                 List all configuration values

Examples:
  recuerdo config set embedding.model nomic-embed-text
  recuerdo config set embedding.dimensions 768
  recuerdo config get storage.sqlite_path
  recuerdo config list`

const configShortDesc string = "Manage persistent recuerdo configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
