// Package config loads bookshelf settings from defaults, an optional config
// file, a .env file and BOOKSHELF_* environment variables, in increasing
// order of precedence. Command-line flags bound by the caller win over all.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys shared by viper and the command-line flags.
const (
	KeyDB         = "db"
	KeyViewer     = "viewer"
	KeyDigest     = "digest"
	KeyLogLevel   = "log_level"
	KeyPrompt     = "prompt"
	KeyTitleWidth = "title_width"
	KeyExtensions = "extensions"
)

// Config is the resolved application configuration. It is passed by value
// to whatever needs it.
type Config struct {
	DB         string
	Viewer     string
	ViewerArgs []string
	Digest     string
	LogLevel   string
	Prompt     string
	TitleWidth int
	Extensions []string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, "books.db")
	v.SetDefault(KeyViewer, "okular")
	v.SetDefault(KeyDigest, "sha256")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyPrompt, "> ")
	v.SetDefault(KeyTitleWidth, 40)
	v.SetDefault(KeyExtensions, []string{".pdf", ".epub", ".djvu", ".fb2", ".mobi", ".txt"})
}

// New returns a viper instance with defaults and environment binding set
// up. If file is non-empty it is read as the config file; otherwise a
// bookshelf.{yaml,toml,json} in the working directory is used when present.
func New(file string) (*viper.Viper, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("BOOKSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("bookshelf")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FromViper resolves a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	viewer := strings.Fields(v.GetString(KeyViewer))
	if len(viewer) == 0 {
		return Config{}, fmt.Errorf("%s must not be empty", KeyViewer)
	}
	cfg := Config{
		DB:         v.GetString(KeyDB),
		Viewer:     viewer[0],
		ViewerArgs: viewer[1:],
		Digest:     v.GetString(KeyDigest),
		LogLevel:   v.GetString(KeyLogLevel),
		Prompt:     v.GetString(KeyPrompt),
		TitleWidth: v.GetInt(KeyTitleWidth),
		Extensions: normalizeExtensions(v.GetStringSlice(KeyExtensions)),
	}
	if cfg.DB == "" {
		return Config{}, fmt.Errorf("%s must not be empty", KeyDB)
	}
	if cfg.TitleWidth < 8 {
		cfg.TitleWidth = 8
	}
	return cfg, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
