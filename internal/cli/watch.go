package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/annoskema/schemacache"
	"github.com/reoring/annoskema/template"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <template> <document.json>",
		Short: "Validate a document again whenever its template changes",
		Long: `Validate a document, then validate it again each time the template
changes: on file changes for a template directory, or on redis.channel
messages for Redis templates. Stops on interrupt.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, file := args[0], args[1]
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			switch src := a.src.(type) {
			case *template.FSSource:
				w, err := a.cache.Watch(src)
				if err != nil {
					return err
				}
				defer w.Close()
			case *template.RedisSource:
				if a.cfg.Redis.Channel == "" {
					return errors.New("redis.channel must be set to watch Redis templates")
				}
				sub, err := a.cache.SubscribeRedis(ctx, a.rdb, a.cfg.Redis.Channel)
				if err != nil {
					return err
				}
				defer sub.Close()
			}

			out := cmd.OutOrStdout()
			run := func() {
				doc, err := readDocument(cmd, file)
				if err != nil {
					errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
					return
				}
				res := svc.ValidateDocument(ctx, doc, id)
				if res.Error != nil {
					_ = reportFailure(cmd, res.Error)
					return
				}
				_ = printValidation(cmd, res.Valid, res.Errors)
			}

			run()
			infoColor.Fprintf(out, "watching template %s\n", id)
			for {
				select {
				case <-ctx.Done():
					return nil
				case changed := <-a.changes:
					if changed != id && changed != schemacache.AllTemplates {
						continue
					}
					infoColor.Fprintf(out, "template %s changed\n", id)
					run()
				}
			}
		},
	}
}

