package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cartCmd "github.com/Alturino/storefront/cart/cmd"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	productCmd "github.com/Alturino/storefront/product/cmd"
	userCmd "github.com/Alturino/storefront/user/cmd"
)

func NewRootCommand() *cobra.Command {
	var (
		logFile string
		env     string
	)

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront backend services",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := log.InitLogger(logFile, env).
				With().
				Str(log.KeyAppName, constants.AppMainStorefront).
				Str(log.KeyTag, "main PersistentPreRun").
				Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "/var/log/storefront.log", "path of the rotated log file")
	rootCmd.PersistentFlags().StringVar(&env, "env", "production", "runtime environment, development enables trace logging")

	commands := []*cobra.Command{
		{
			Use:   "cart",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				cartCmd.RunCartService(cmd.Context())
			},
		},
		{
			Use:   "product",
			Short: "Run product service",
			Run: func(cmd *cobra.Command, args []string) {
				productCmd.RunProductService(cmd.Context())
			},
		},
		{
			Use:   "user",
			Short: "Run user service",
			Run: func(cmd *cobra.Command, args []string) {
				userCmd.RunUserService(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	return rootCmd
}

func Start() {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(c); err != nil {
		stop()
		os.Exit(1)
	}
}
