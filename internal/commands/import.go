package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/audit"
	"github.com/cleared-dev/cleared-gl/internal/importer"
)

type importOptions struct {
	format string
	bank   string
	offset string
}

func newImportCommand(dir *string) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file.csv...]",
		Short: "Post bank statement lines against a bank and an offset account",
		Long: `Post bank statement lines against a bank and an offset account.

With no files, every CSV in import/ is imported and then moved to
import/processed/. Lines already on the bank account (same reference) are
skipped, so re-running an import is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, *dir, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "chase", "statement format (chase, simple)")
	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank account code (required)")
	cmd.Flags().StringVar(&opts.offset, "offset", "", "offset account code, e.g. a suspense account (required)")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("offset")

	return cmd
}

func runImport(cmd *cobra.Command, dir string, files []string, opts importOptions) error {
	parser := importer.DefaultRegistry().Get(opts.format)
	if parser == nil {
		return fmt.Errorf("unknown statement format %q", opts.format)
	}

	p, err := openProject(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer p.Close()

	bank, err := p.account(opts.bank)
	if err != nil {
		return fmt.Errorf("--bank: %w", err)
	}
	offset, err := p.account(opts.offset)
	if err != nil {
		return fmt.Errorf("--offset: %w", err)
	}

	fromInbox := len(files) == 0
	if fromInbox {
		found, err := importer.Scan(p.dir)
		if err != nil {
			return err
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}

	im := importer.New(p.engine, bank.ID, offset.ID, p.log)
	out := cmd.OutOrStdout()
	for _, path := range files {
		lines, err := parseStatement(parser, path)
		if err != nil {
			return err
		}
		res, importErr := im.Import(cmd.Context(), lines)
		fmt.Fprintf(out, "%s: posted %d, skipped %d\n", filepath.Base(path), len(res.Posted), len(res.Skipped))
		if importErr == nil && fromInbox {
			if err := importer.MarkProcessed(p.dir, filepath.Base(path)); err != nil {
				return err
			}
		}
		if len(res.Posted) > 0 {
			first, last := res.Posted[0].ID, res.Posted[len(res.Posted)-1].ID
			if err := p.record(cmd.Context(), audit.ActionImport, first,
				fmt.Sprintf("%s: %d entries %s..%s", filepath.Base(path), len(res.Posted), first, last),
				fmt.Sprintf("import: %s (%d entries)", filepath.Base(path), len(res.Posted))); err != nil {
				return err
			}
		}
		if importErr != nil {
			return fmt.Errorf("importing %s: %w", path, importErr)
		}
	}
	return nil
}

func parseStatement(parser importer.Parser, path string) ([]importer.StatementLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	lines, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lines, nil
}
