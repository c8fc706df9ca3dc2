package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/shell"
	"bookshelf/library"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	mgr    *library.Manager
	lines  *bufio.Reader
}

func newRootCmd(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "bookshelf",
		Short:        "Personal catalog of book files on local disk",
		Long:         "bookshelf keeps a per-user list of book files and opens them with an external viewer.\nRun without a subcommand for the interactive prompt.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := shell.New(cmd.InOrStdin(), cmd.OutOrStdout(), a.mgr.Credentials, a.mgr.Catalog, shell.Config{
				Prompt:     a.cfg.Prompt,
				TitleWidth: a.cfg.TitleWidth,
			})
			if f, ok := cmd.InOrStdin().(*os.File); ok && shell.IsTerminal(f) {
				sh.ReadPassword = shell.TerminalPassword(f)
			}
			return sh.Run()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./bookshelf.yaml if present)")
	flags.String("db", "", "path to the SQLite catalog")
	flags.String("viewer", "", "command used to open books")
	flags.String("digest", "", "password digest: sha256, sha3-256 or blake2b-256")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		v, err := config.New(configFile)
		if err != nil {
			return err
		}
		if err := bindFlags(v, flags); err != nil {
			return err
		}
		return a.open(v)
	}

	root.AddCommand(
		newRegisterCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newOpenCmd(a),
	)
	return root
}

// bindFlags lets explicitly set flags override config and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		config.KeyDB:       "db",
		config.KeyViewer:   "viewer",
		config.KeyDigest:   "digest",
		config.KeyLogLevel: "log-level",
	} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func (a *app) open(v *viper.Viper) error {
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	mgr, err := library.NewManager(library.Options{
		DBPath: cfg.DB,
		Digest: cfg.Digest,
		Opener: library.CommandOpener{Command: cfg.Viewer, Args: cfg.ViewerArgs},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("open catalog %s: %w", cfg.DB, err)
	}
	a.cfg, a.logger, a.mgr = cfg, logger, mgr
	return nil
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Close()
}

// readPassword masks input on a terminal and falls back to reading one line
// otherwise, so passwords can be piped in scripts.
func (a *app) readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && shell.IsTerminal(f) {
		return shell.TerminalPassword(f)(prompt)
	}
	if a.lines == nil {
		a.lines = bufio.NewReader(in)
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return strings.TrimSpace(line), nil
}

// login authenticates nickname with a prompted password.
func (a *app) login(cmd *cobra.Command, nickname string) (*library.User, error) {
	password, err := a.readPassword(cmd, "Password: ")
	if err != nil {
		return nil, err
	}
	u, err := a.mgr.Credentials.Login(nickname, password)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func newRegisterCmd(a *app) *cobra.Command {
	var nickname string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := a.readPassword(cmd, "Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}
			u, err := a.mgr.Credentials.Register(nickname, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (ID %d)\n", u.Nickname, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&nickname, "user", "u", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var nickname, title, path string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book file to your catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := library.VerifyPath(path); err != nil {
				return err
			}
			u, err := a.login(cmd, nickname)
			if err != nil {
				return err
			}
			b, err := a.mgr.Catalog.AddBook(u, title, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book %d: %q (%s)\n", b.ID, b.Title, b.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&nickname, "user", "u", "", "username")
	cmd.Flags().StringVarP(&title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&path, "path", "p", "", "path to the book file")
	for _, name := range []string{"user", "title", "path"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var nickname string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.login(cmd, nickname)
			if err != nil {
				return err
			}
			books, err := a.mgr.Catalog.ListBooks(u)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "No books yet.")
				return nil
			}
			for _, b := range books {
				fmt.Fprintf(out, "%d\t%s\t%s\n", b.ID, b.Title, b.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&nickname, "user", "u", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	var nickname string
	cmd := &cobra.Command{
		Use:   "open KEY",
		Short: "Open one of your books by ID or exact title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.login(cmd, nickname)
			if err != nil {
				return err
			}
			b, err := a.mgr.Catalog.OpenBook(u, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %q\n", b.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&nickname, "user", "u", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
