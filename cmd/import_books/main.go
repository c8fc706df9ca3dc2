package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/library"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var configFile, nickname, dbPath string

	cmd := &cobra.Command{
		Use:          "import_books DIR",
		Short:        "Add every book file in DIR to a user's catalog",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(configFile)
			if err != nil {
				return err
			}
			if dbPath != "" {
				v.Set(config.KeyDB, dbPath)
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			mgr, err := library.NewManager(library.Options{DBPath: cfg.DB, Digest: cfg.Digest, Logger: logger})
			if err != nil {
				return fmt.Errorf("open catalog %s: %w", cfg.DB, err)
			}
			defer mgr.Close()

			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			user, err := mgr.Credentials.Login(nickname, password)
			if err != nil {
				return err
			}

			imp := &importer{catalog: mgr.Catalog, extensions: cfg.Extensions, out: cmd.OutOrStdout()}
			return imp.run(user, args[0])
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite catalog")
	cmd.Flags().StringVarP(&nickname, "user", "u", "", "username to import for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
