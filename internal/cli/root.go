// Package cli implements the annoskema command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/i18n"
	"github.com/reoring/annoskema/internal/config"
	"github.com/reoring/annoskema/schemacache"
	"github.com/reoring/annoskema/service"
	"github.com/reoring/annoskema/template"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("failed")

// app holds what PersistentPreRunE builds for the subcommands.
type app struct {
	configPath string
	templates  string
	lang       string
	logLevel   string
	jsonOut    bool

	cfg   *config.Config
	log   *zap.Logger
	cache *schemacache.Cache
	src   template.Source
	rdb   *redis.Client
	// changes receives ids dropped from the cache; see the watch command.
	changes chan string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "annoskema",
		Short: "Validate documents against declarative templates and edit annotation fields",
		Long: color.CyanString(`annoskema - template-driven document validation

Templates declare the shape of a JSON document and which of its fields are
annotation fields. annoskema validates documents (fully or field by field),
lists annotation fields, and reads or writes their values.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default ./annoskema.yaml)")
	f.StringVar(&a.templates, "templates", "", "template directory (overrides templates.dir)")
	f.StringVar(&a.lang, "lang", "", "message language: en or zh (overrides lang)")
	f.StringVar(&a.logLevel, "log-level", "", "log level (overrides log.level)")
	f.BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(NewVersionCommand())
	root.AddCommand(newDescribeCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newExtractCommand())
	root.AddCommand(newApplyCommand())
	root.AddCommand(newJSONSchemaCommand())
	root.AddCommand(newPushCommand(a))
	root.AddCommand(newWatchCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.templates != "" {
		cfg.Templates.Source = config.SourceDir
		cfg.Templates.Dir = a.templates
	}
	if a.lang != "" {
		cfg.Lang = a.lang
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	i18n.SetLanguage(cfg.Lang)
	a.cfg, a.log = cfg, log

	switch cfg.Templates.Source {
	case config.SourceRedis:
		a.rdb = a.redisClient()
		a.src = template.NewRedisSource(a.rdb, cfg.Redis.Prefix)
	default:
		src := template.DirSource(cfg.Templates.Dir)
		src.Exts = cfg.Templates.Ext
		a.src = src
	}
	a.changes = make(chan string, 16)
	a.cache = schemacache.New(
		template.NewLoader(a.src, template.WithLogger(log)),
		schemacache.WithLogger(log),
		schemacache.WithOnInvalidate(func(id string) {
			select {
			case a.changes <- id:
			default:
			}
		}),
	)

	opts := []service.Option{service.WithLogger(log)}
	if cfg.Validation.RejectUnknown {
		opts = append(opts, service.WithUnknownKeys(annoskema.UnknownReject))
	}
	svc := service.New(a.cache, opts...)
	cmd.SetContext(service.NewContext(contextOf(cmd), svc))
	return nil
}

func (a *app) redisClient() *redis.Client {
	if a.rdb != nil {
		return a.rdb
	}
	return redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.rdb != nil {
		err := a.rdb.Close()
		a.rdb = nil
		return err
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func serviceOf(cmd *cobra.Command) (*service.Service, error) {
	svc, ok := service.FromContext(contextOf(cmd))
	if !ok {
		return nil, errors.New("annoskema: service not initialized")
	}
	return svc, nil
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			titleColor.Fprint(out, "annoskema version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			color.New(color.FgRed, color.Bold).Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
