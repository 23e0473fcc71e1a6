package cli

import (
	"github.com/spf13/cobra"

	"github.com/reoring/annoskema/docjson"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template> <document.json|->",
		Short: "Validate a whole document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			res := svc.ValidateDocument(cmd.Context(), doc, args[0])
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
			return printValidation(cmd, res.Valid, res.Errors)
		},
	}
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <template> <fragment.json|->",
		Short: "Validate only the fields present in a document fragment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			frag, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			res := svc.ValidatePartial(cmd.Context(), frag, args[0])
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
			return printPartial(cmd, res)
		},
	}
}

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <template> <document.json|->",
		Short: "Print the annotation values of a document",
		Long:  "Print the annotation values of a document as a JSON object keyed by annotation path, in template order.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			res := svc.ExtractAnnotations(cmd.Context(), doc, args[0])
			if res.Error != nil {
				if jsonOutput(cmd) {
					_ = writeJSON(cmd, res)
					return errReported
				}
				return reportFailure(cmd, res.Error)
			}
			return writeJSON(cmd, res.Values)
		},
	}
}

func newApplyCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "apply <template> <document.json|-> <path> <value>",
		Short: "Set an annotation field and print the updated document",
		Long: `Set an annotation field and print the updated document.

The value is parsed as JSON (42, true, "text", null) and taken as a plain
string when it is not valid JSON or when --raw is given. The value must
satisfy the field's type and constraints.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			var value any = args[3]
			if !raw {
				if v, err := docjson.Decode([]byte(args[3])); err == nil {
					value = v
				}
			}
			res := svc.ApplyAnnotation(cmd.Context(), doc, args[2], value, args[0])
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
			if !res.Valid {
				errorColor.Fprintln(cmd.ErrOrStderr(), "✗ value rejected")
				printFieldErrors(cmd.ErrOrStderr(), res.Errors)
				return errReported
			}
			return writeJSON(cmd, res.Document)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "treat the value as a plain string")
	return cmd
}

func newJSONSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema <template>",
		Short: "Print the template as a JSON Schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceOf(cmd)
			if err != nil {
				return err
			}
			s, f := svc.Schema(cmd.Context(), args[0])
			if f != nil {
				return reportFailure(cmd, f)
			}
			return writeJSON(cmd, s.JSONSchema())
		},
	}
}
