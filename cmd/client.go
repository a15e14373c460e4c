package cmd

import (
	"github.com/grovetools/board/cli"
	"github.com/grovetools/board/config"
	"github.com/grovetools/board/pkg/board"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// storeClient loads board.yml and returns a client for the configured store.
func storeClient(cmd *cobra.Command, component string) (*config.Config, *board.RemoteClient, *logrus.Entry, error) {
	cfg, _, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cli.GetLogger(cmd, component)

	client, err := board.NewRemoteClient(cfg.APIURL, cfg.RequestTimeout())
	if err != nil {
		return nil, nil, nil, err
	}
	logger.WithField("api_url", cfg.APIURL).Debug("Using listings store")
	return cfg, client, logger, nil
}
