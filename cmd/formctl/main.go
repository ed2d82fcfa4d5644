// Command formctl works with form schemas offline.
//
//	formctl check -schema contact.yaml -data answers.json
//	formctl fmt -schema contact.yaml
//
// check validates a submission the same way the API does and prints either
// the cleaned data or the field errors. fmt prints the schema as normalized
// JSON, ready to send to POST /api/form/create.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sakif/promptforms/internal/schema"
	"github.com/sakif/promptforms/internal/validate"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1 // the submission failed validation
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "check":
		return runCheck(args[1:], stdout, stderr)
	case "fmt":
		return runFmt(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "formctl: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  formctl check -schema FILE -data FILE")
	fmt.Fprintln(w, "  formctl fmt -schema FILE")
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema file (YAML or JSON)")
	dataPath := fs.String("data", "", "submission file (JSON object)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *schemaPath == "" || *dataPath == "" {
		fmt.Fprintln(stderr, "formctl check: -schema and -data are required")
		return exitUsage
	}

	s, err := loadSchema(*schemaPath)
	if err != nil {
		fmt.Fprintf(stderr, "formctl check: %v\n", err)
		return exitUsage
	}

	raw, err := os.ReadFile(*dataPath)
	if err != nil {
		fmt.Fprintf(stderr, "formctl check: %v\n", err)
		return exitUsage
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		fmt.Fprintf(stderr, "formctl check: %s: not a JSON object: %v\n", *dataPath, err)
		return exitUsage
	}

	res := validate.Submission(s, input)
	if !res.OK() {
		printJSON(stdout, map[string]any{"valid": false, "errors": res.Errors})
		return exitInvalid
	}
	printJSON(stdout, map[string]any{"valid": true, "data": res.Data})
	return exitOK
}

func runFmt(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema file (YAML or JSON)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *schemaPath == "" {
		fmt.Fprintln(stderr, "formctl fmt: -schema is required")
		return exitUsage
	}

	s, err := loadSchema(*schemaPath)
	if err != nil {
		fmt.Fprintf(stderr, "formctl fmt: %v\n", err)
		return exitInvalid
	}
	printJSON(stdout, s)
	return exitOK
}

func loadSchema(path string) (schema.FormSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.FormSchema{}, err
	}
	return schema.ParseYAML(raw)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
