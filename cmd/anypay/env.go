package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"anypay-go/config"
	"anypay-go/pkg/anypay"
	"anypay-go/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// env is what every command runs against: parsed flags, merged config.
type env struct {
	fs  *pflag.FlagSet
	cfg *config.Config
	log zerolog.Logger
}

// globalFlags maps shared flags to config keys.
var globalFlags = map[string]string{
	"api-id":     "anypay.api_id",
	"api-key":    "anypay.api_key",
	"project-id": "anypay.project_id",
	"secret":     "anypay.project_secret",
	"md5":        "anypay.use_md5",
	"base-url":   "anypay.base_url",
	"jwt-secret": "jwt.secret",
	"log-level":  "log.level",
}

func newEnv(name string, args []string, register func(*pflag.FlagSet), stderr io.Writer) (*env, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	configPath := fs.String("config", "", "config file (default ./config.yaml)")
	fs.String("api-id", "", "AnyPay API ID")
	fs.String("api-key", "", "AnyPay API key")
	fs.Int64("project-id", 0, "default project ID")
	fs.String("secret", "", "project secret key, used by bill-url")
	fs.Bool("md5", false, "sign with MD5 instead of SHA256")
	fs.String("base-url", anypay.DefaultBaseURL, "AnyPay base URL")
	fs.String("jwt-secret", "", "gateway JWT secret, used by token")
	fs.String("log-level", "", "log level written to stderr (config log.level)")
	if register != nil {
		register(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	v := config.New(*configPath)
	if err := bindGlobalFlags(v, fs); err != nil {
		return nil, err
	}
	cfg, err := config.Read(v)
	if err != nil {
		return nil, err
	}

	return &env{
		fs:  fs,
		cfg: cfg,
		log: logger.NewWithWriter(cfg.Log.Level, stderr),
	}, nil
}

// bindGlobalFlags lets explicitly set flags override file and env values.
func bindGlobalFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range globalFlags {
		f := fs.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// client builds an AnyPay client without the startup check; the command's
// own call surfaces bad credentials.
func (e *env) client(ctx context.Context) (*anypay.Client, error) {
	cfg := e.cfg.AnyPay.Client()
	cfg.NoCheck = true
	client, err := anypay.New(ctx, cfg, anypay.WithLogger(e.log))
	if errors.Is(err, anypay.ErrMissingCredentials) {
		return nil, fmt.Errorf("%w (set --api-id/--api-key or ANYPAY_ANYPAY_API_ID/ANYPAY_ANYPAY_API_KEY)", err)
	}
	return client, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
