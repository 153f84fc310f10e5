package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
	"github.com/gradpath/gradpath-engine/pkg/services"
)

var exportFacultyCmd = &cobra.Command{
	Use:   "export-faculty",
	Short: "Export the faculty database as CSV",
	Long: `Write every saved faculty record to a CSV file that opens cleanly in
spreadsheet tools (UTF-8 with a byte order mark).

Filters narrow the export the same way the faculty tab does.

Examples:
  gradpath-engine export-faculty --out faculty.csv
  gradpath-engine export-faculty --country Germany --field engineering --out de-eng.csv
  gradpath-engine export-faculty --out -`,
	Args: cobra.NoArgs,
	RunE: runExportFaculty,
}

func init() {
	exportFacultyCmd.Flags().StringP("out", "o", "", "Output file path, or - for stdout (required)")
	exportFacultyCmd.Flags().String("country", "", "Only export records for this country")
	exportFacultyCmd.Flags().String("field", "", "Only export records in this field category")
	exportFacultyCmd.Flags().String("client", "", "Only export records linked to this client id")
	_ = exportFacultyCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportFacultyCmd)
}

func runExportFaculty(cmd *cobra.Command, _ []string) error {
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("getting out flag: %w", err)
	}
	filter, err := exportFilter(cmd)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	ws, adapter, err := openWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	n, err := exportFaculty(ctx, ws, filter, out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if out != "-" {
		cmd.Printf("Exported %d faculty records to %s\n", n, out)
	}
	return nil
}

func exportFilter(cmd *cobra.Command) (models.FacultyFilter, error) {
	var f models.FacultyFilter
	var err error
	if f.Country, err = cmd.Flags().GetString("country"); err != nil {
		return f, fmt.Errorf("getting country flag: %w", err)
	}
	if f.FieldCategory, err = cmd.Flags().GetString("field"); err != nil {
		return f, fmt.Errorf("getting field flag: %w", err)
	}
	if f.ClientID, err = cmd.Flags().GetString("client"); err != nil {
		return f, fmt.Errorf("getting client flag: %w", err)
	}
	return f, nil
}

// exportFaculty writes the filtered records to path, or to stdout when path is "-".
func exportFaculty(ctx context.Context, faculty repositories.FacultyRepository, filter models.FacultyFilter, path string, stdout io.Writer) (int, error) {
	records := faculty.ListFaculty(ctx, filter)

	if path == "-" {
		if err := services.WriteFacultyRecordsCSV(stdout, records); err != nil {
			return 0, fmt.Errorf("write csv: %w", err)
		}
		return len(records), nil
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	if err := services.WriteFacultyRecordsCSV(f, records); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return len(records), nil
}
