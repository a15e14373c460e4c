package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/board/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput represents the XDG-compliant paths used by board.
type PathsOutput struct {
	ConfigDir string `json:"config_dir"`
	StateDir  string `json:"state_dir"`
	LogDir    string `json:"log_dir"`
	PidFile   string `json:"pid_file"`
	Database  string `json:"database"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the XDG-compliant paths used by board",
		Long: `Print the XDG-compliant paths used by board, as JSON.

- config_dir: board.yml
- state_dir: runtime state of the store server
- log_dir: log files when file logging is enabled
- pid_file: lock held by a running 'board serve start'
- database: default SQLite file for the sqlite3 driver`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir: paths.ConfigDir(),
				StateDir:  paths.StateDir(),
				LogDir:    paths.LogDir(),
				PidFile:   paths.PidFilePath(),
				Database:  paths.DefaultDatabasePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	return cmd
}
