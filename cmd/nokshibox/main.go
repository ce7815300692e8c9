package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nokshibox/internal/config"
	"nokshibox/internal/http/server"
	"nokshibox/internal/mail"
	"nokshibox/internal/repos"
	"nokshibox/internal/services"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nokshibox",
		Short:         "Handicraft marketplace for buyers and sellers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("db", "", "database DSN (overrides DB_DSN)")
	_ = viper.BindPFlag("DB_DSN", root.PersistentFlags().Lookup("db"))

	root.AddCommand(serveCmd(), createAdminCmd())
	return root
}

// openLogFile tees the standard logger into LOG_FILE when one is configured.
func openLogFile(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", path, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			openLogFile(cfg.LogFile)

			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			app := server.New(cfg, db, mail.New(cfg))
			log.Printf("[serve] listening on :%s (debug=%t)", cfg.Port, cfg.Debug)
			return app.Listen(":" + cfg.Port)
		},
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().Bool("debug", true, "serve /media and reload templates (overrides DEBUG)")
	_ = viper.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("DEBUG", cmd.Flags().Lookup("debug"))
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			auth := services.NewAuthService(repos.NewUserRepo(db), repos.NewSessionRepo(db), cfg.BcryptCost)
			u, err := auth.CreateStaff(email, name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staff account ready: id=%d email=%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
