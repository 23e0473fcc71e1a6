package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reoring/annoskema"
)

func newDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <template>",
		Short: "List the annotation fields of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			res := svc.LoadTemplate(cmd.Context(), args[0])
			if jsonOutput(cmd) {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
				if !res.Valid {
					return errReported
				}
				return nil
			}
			if res.Error != nil {
				return reportFailure(cmd, res.Error)
			}

			out := cmd.OutOrStdout()
			infoColor.Fprintf(out, "%s (%s)\n", res.SchemaInfo.Name, res.SchemaInfo.ID)
			if res.SchemaInfo.Description != "" {
				fmt.Fprintln(out, res.SchemaInfo.Description)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tKIND\tTYPE\tREQUIRED\tDESCRIPTION")
			for _, d := range res.AnnotationFields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", d.Path, d.Kind, typeLabel(d), d.Required, d.Description)
			}
			return tw.Flush()
		},
	}
}

func typeLabel(d annoskema.Descriptor) string {
	switch {
	case d.Type != "":
		return string(d.Type)
	case d.Items != nil && d.Items.Type != "":
		return string(d.Items.Type)
	case d.Items != nil:
		return d.Items.Kind.String()
	default:
		return "-"
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}
