package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/docjson"
	"github.com/reoring/annoskema/service"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	pathColor  = color.New(color.FgYellow)
	infoColor  = color.New(color.FgCyan)
)

// readDocument decodes a JSON document from a file, or stdin for "-".
// Duplicate keys are rejected.
func readDocument(cmd *cobra.Command, name string) (any, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := docjson.DecodeStrict(data)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", name, err)
	}
	return doc, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := docjson.Encode(v, true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(b); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

// reportFailure prints f and returns errReported.
func reportFailure(cmd *cobra.Command, f *service.Failure) error {
	w := cmd.ErrOrStderr()
	errorColor.Fprintf(w, "✗ %s: ", f.Kind)
	fmt.Fprintln(w, f.Message)
	printFieldErrors(w, f.Details)
	return errReported
}

func printFieldErrors(w io.Writer, errs annoskema.FieldErrors) {
	for _, e := range errs {
		fmt.Fprint(w, "  ")
		if e.Path != "" {
			pathColor.Fprint(w, e.Path)
			fmt.Fprint(w, ": ")
		}
		fmt.Fprintf(w, "%s (%s)\n", e.Message, e.Code)
	}
}

func printValidation(cmd *cobra.Command, valid bool, errs annoskema.FieldErrors) error {
	w := cmd.OutOrStdout()
	if valid {
		okColor.Fprintln(w, "✓ valid")
		return nil
	}
	errorColor.Fprintf(w, "✗ %d problem(s)\n", len(errs))
	printFieldErrors(w, errs)
	return errReported
}

func printPartial(cmd *cobra.Command, res service.PartialResponse) error {
	w := cmd.OutOrStdout()
	paths := make([]string, 0, len(res.FieldResults))
	for p := range res.FieldResults {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fr := res.FieldResults[p]
		if fr.Valid {
			okColor.Fprint(w, "✓ ")
			fmt.Fprintln(w, p)
			continue
		}
		errorColor.Fprint(w, "✗ ")
		fmt.Fprintln(w, p)
		printFieldErrors(w, fr.Errors)
	}
	if len(paths) == 0 {
		infoColor.Fprintln(w, "no template fields present")
	}
	if !res.Valid {
		return errReported
	}
	return nil
}
