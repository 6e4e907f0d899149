package cmd

import (
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/dqn/cmd/play"
	"github.com/samuelfneumann/dqn/cmd/train"
	"github.com/samuelfneumann/dqn/config"
)

// RootCmd returns the root cobra command of the dqn tool
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dqn",
		Short: "Train and play Deep Q-Network agents on Cartpole",
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&config.ConfigPath, "config", "c", "",
		"Config file path, defaults are used when empty")
	cmd.AddCommand(train.TrainCmd())
	cmd.AddCommand(play.PlayCmd())
	return cmd
}
