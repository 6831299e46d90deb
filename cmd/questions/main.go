// Command questions imports or exports the question bank against the configured database.
//
//	questions -import bank.yaml
//	questions -export -difficulty hard -out hard.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yungbote/iof-learning/internal/app"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/services"
)

func main() {
	var (
		importPath string
		export     bool
		out        string
		difficulty string
		subject    string
		topic      string
	)
	flag.StringVar(&importPath, "import", "", "JSON or YAML file of questions to import")
	flag.BoolVar(&export, "export", false, "export questions as JSON")
	flag.StringVar(&out, "out", "", "export destination (defaults to the generated file name)")
	flag.StringVar(&difficulty, "difficulty", "", "export filter: easy, medium or hard")
	flag.StringVar(&subject, "subject", "", "export filter: subject")
	flag.StringVar(&topic, "topic", "", "export filter: topic")
	flag.Parse()

	if (importPath == "") == !export {
		fmt.Fprintln(os.Stderr, "exactly one of -import or -export is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}

	bank := a.Services.QuestionBank
	if importPath != "" {
		err = runImport(ctx, bank, importPath)
	} else {
		err = runExport(ctx, bank, services.ExportFilter{Difficulty: difficulty, Subject: subject, Topic: topic}, out)
	}
	a.Close(ctx)
	if err != nil {
		printErr(err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, bank services.QuestionBankService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	summary, err := bank.Import(ctx, services.ImportInput{Filename: filepath.Base(path), Data: data})
	if err != nil {
		return err
	}
	fmt.Printf("imported %d questions (easy=%d medium=%d hard=%d) batch=%s\n",
		summary.Total, summary.Easy, summary.Medium, summary.Hard, summary.ID)
	return nil
}

func runExport(ctx context.Context, bank services.QuestionBankService, f services.ExportFilter, out string) error {
	file, err := bank.Export(ctx, f)
	if err != nil {
		return err
	}
	if out == "" {
		out = file.Filename
	}
	if err := os.WriteFile(out, file.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("exported %d questions to %s\n", file.Count, out)
	return nil
}

func printErr(err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ae.Code, ae)
		for _, f := range ae.Fields {
			fmt.Fprintf(os.Stderr, "  record %d, %s: %s\n", f.Index, f.Field, f.Message)
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
