package main

import (
	"github.com/spf13/cobra"

	"github.com/sevenofnine/virtual-calendar/internal/app"
	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/config"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calendar daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		var err error
		if serveConfigPath != "" {
			cfg, err = config.LoadFile(serveConfigPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)
		application := app.New(cfg, calendar.NewStore(), logger)
		return application.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to YAML config file")
}
