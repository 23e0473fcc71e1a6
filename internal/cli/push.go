package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/annoskema/schemacache"
	"github.com/reoring/annoskema/template"
)

func newPushCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push <template-id> <file>",
		Short: "Store a template in Redis and notify running caches",
		Long: `Store a template in Redis under redis.prefix and publish its id on
redis.channel so that running caches drop their copy. The template is
parsed first; invalid templates are not stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, file := args[0], args[1]
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			format := template.FormatAuto
			switch filepath.Ext(file) {
			case ".json":
				format = template.FormatJSON
			case ".yaml", ".yml":
				format = template.FormatYAML
			}
			_, diag, err := template.Parse(id, data, format)
			if err != nil {
				w := cmd.ErrOrStderr()
				errorColor.Fprintf(w, "✗ template %s rejected\n", id)
				if problems := template.Problems(err); len(problems) > 0 {
					for _, p := range problems {
						fmt.Fprintf(w, "  %s\n", p)
					}
				} else {
					fmt.Fprintf(w, "  %v\n", err)
				}
				return errReported
			}
			for _, warn := range diag.Warnings() {
				infoColor.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warn)
			}

			a.rdb = a.redisClient()
			ctx := cmd.Context()
			if err := template.NewRedisSource(a.rdb, a.cfg.Redis.Prefix).Store(ctx, id, data); err != nil {
				return err
			}
			if ch := a.cfg.Redis.Channel; ch != "" {
				if err := schemacache.PublishInvalidation(ctx, a.rdb, ch, id); err != nil {
					return err
				}
			}
			a.log.Info("template pushed", zap.String("template", id), zap.String("key", a.cfg.Redis.Prefix+id))
			okColor.Fprintf(cmd.OutOrStdout(), "✓ pushed %s\n", id)
			return nil
		},
	}
}
