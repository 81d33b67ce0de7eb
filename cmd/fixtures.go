// File: cmd/fixtures.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/vfit-e2e/internal/fixtures"
	"github.com/xkilldash9x/vfit-e2e/internal/pageobject"
)

func newFixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Work with JSON test fixtures",
	}

	var skipFiles bool
	validate := &cobra.Command{
		Use:   "validate <fixture.json>...",
		Short: "Check that fixture files decode, validate and reference existing upload files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFixtures(cmd, args, !skipFiles)
		},
	}
	validate.Flags().BoolVar(&skipFiles, "skip-files", false, "do not require upload files to exist")
	cmd.AddCommand(validate)
	return cmd
}

func validateFixtures(cmd *cobra.Command, paths []string, checkFiles bool) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		params, err := fixtures.Load(path)
		if err == nil && checkFiles {
			err = checkUploads(params)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%s)\n", path, summarizeFixture(params))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixture files are invalid", failed, len(paths))
	}
	return nil
}

func checkUploads(params *fixtures.Parameters) error {
	names := make([]string, 0, len(params.Uploads))
	for name := range params.Uploads {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		u := params.Uploads[name]
		info, err := os.Stat(u.Path)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("upload %q: %w", name, err))
		case info.IsDir():
			errs = append(errs, fmt.Errorf("upload %q: %s is a directory", name, u.Path))
		case u.MaxKB > 0 && float64(info.Size())/1024.0 > u.MaxKB:
			errs = append(errs, fmt.Errorf("upload %q: %s exceeds its own %v KB limit", name, u.Path, u.MaxKB))
		}
	}
	return errors.Join(errs...)
}

func summarizeFixture(params *fixtures.Parameters) string {
	parts := []string{
		fmt.Sprintf("%d credentials", len(params.Credentials)),
		fmt.Sprintf("%d uploads", len(params.Uploads)),
		fmt.Sprintf("%d values", len(params.Values)),
	}
	if c := params.Challenge; c != nil {
		parts = append(parts, fmt.Sprintf("challenge %q %s..%s", c.Name, c.StartDate, c.EndDate))
	}
	return strings.Join(parts, ", ")
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with YAML selector catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <catalog.yaml>",
		Short: "Check a selector catalog and list its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := pageobject.LoadCatalog(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range catalog.PageNames() {
				page, _ := catalog.Page(name)
				fmt.Fprintf(out, "%s: %s\n", name, strings.Join(page.ElementNames(), ", "))
			}
			return nil
		},
	})
	return cmd
}
