package drivesvc

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mwalimu/somo/core"
)

type driveService struct {
	svc      *drive.Service
	folderID string
	logger   core.Logger
}

var _ core.FileArchiver = (*driveService)(nil)

// NewDriveService authenticates against Drive with the configured service
// account key.
func NewDriveService(ctx context.Context, conf *core.Config, logger core.Logger) (*driveService, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON([]byte(conf.Google.ServiceAccount)),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating drive service")
	}
	return &driveService{svc: svc, folderID: conf.Google.DriveFolderID, logger: logger}, nil
}

func (d *driveService) Archive(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	f := &drive.File{Name: name}
	if d.folderID != "" {
		f.Parents = []string{d.folderID}
	}
	created, err := d.svc.Files.Create(f).
		Media(r, googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "uploading file")
	}
	return created.Id, nil
}

// ArchiverMock records uploads in memory.
type ArchiverMock struct {
	FileID string
	Err    error

	Names []string
}

var _ core.FileArchiver = (*ArchiverMock)(nil)

func (m *ArchiverMock) Archive(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Names = append(m.Names, name)
	if m.FileID == "" {
		return "drive-file-" + name, nil
	}
	return m.FileID, nil
}
