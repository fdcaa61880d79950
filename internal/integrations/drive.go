package integrations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// FileUploader creates files in Drive.
type FileUploader interface {
	CreateFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error)
}

// DriveExporter saves the monthly CSV report to a Drive folder.
type DriveExporter struct {
	files    FileUploader
	folderID string
	log      zerolog.Logger
}

// NewDriveExporter builds an exporter backed by the Drive API. An empty
// folderID saves into the root of My Drive.
func NewDriveExporter(ctx context.Context, credentialsFile, folderID string, log zerolog.Logger) (*DriveExporter, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewDriveExporter: %w", err)
	}

	return NewDriveExporterWithUploader(&driveAPI{svc: svc}, folderID, log), nil
}

// NewDriveExporterWithUploader builds an exporter around any FileUploader.
func NewDriveExporterWithUploader(files FileUploader, folderID string, log zerolog.Logger) *DriveExporter {
	return &DriveExporter{
		files:    files,
		folderID: folderID,
		log:      log,
	}
}

func (d *DriveExporter) Target() domain.Integration {
	return domain.IntegrationDrive
}

// Export uploads one report file.
func (d *DriveExporter) Export(ctx context.Context, st *domain.State, today time.Time) (int, error) {
	report, err := MonthlyReport(st, today)
	if err != nil {
		return 0, fmt.Errorf("DriveExporter.Export: %w", err)
	}

	meta := &drive.File{
		Name:     reportName(today),
		MimeType: "text/csv",
	}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}

	f, err := d.files.CreateFile(ctx, meta, bytes.NewReader(report))
	if err != nil {
		return 0, fmt.Errorf("DriveExporter.Export: upload %s: %w", meta.Name, err)
	}

	d.log.Info().
		Str("file_id", f.Id).
		Str("name", meta.Name).
		Int("bytes", len(report)).
		Msg("Monthly report uploaded")
	return 1, nil
}

type driveAPI struct {
	svc *drive.Service
}

func (a *driveAPI) CreateFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error) {
	return a.svc.Files.Create(meta).Media(content).Context(ctx).Do()
}

var _ Exporter = (*DriveExporter)(nil)
