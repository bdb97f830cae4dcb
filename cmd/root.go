// cmd/root.go
package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blockcast/blockcast/internal/server"
)

var (
	logLevel string
	addr     string
)

var rootCmd = &cobra.Command{
	Use:   "blockcast [config.json]",
	Short: "Prefetch-streaming server for interactive block delivery",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		var configPath string
		if len(args) == 1 {
			configPath = args[0]
		}

		cfg, err := server.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("blockcast: %v", err)
		}

		mgr := server.NewManager(cfg)
		router := server.NewRouter(mgr)

		logrus.Infof("blockcast: listening on %s", addr)
		if err := http.ListenAndServe(addr, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("blockcast: server exited: %v", err)
		}
		fmt.Println("blockcast: clean shutdown")
	},
}

// Execute runs the root command, matching the teacher's thin-main
// pattern (main.go just calls cmd.Execute()).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP/WebSocket listen address")
}
