package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/utils"
)

// Manager downloads Drive files and folders into the local cache
type Manager struct {
	service *drive.Service
	logger  logging.Logger
}

// NewManager creates a Drive manager. Publicly shared resources need
// only an API key; extra options override the transport in tests.
func NewManager(ctx context.Context, apiKey string, logger logging.Logger, opts ...option.ClientOption) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	} else {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	clientOpts = append(clientOpts, opts...)

	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Manager{service: service, logger: logger}, nil
}

// Fetch resolves a share URL and downloads its target under localPath.
// File links are written to localPath itself; folder links become a
// directory tree rooted there.
func (m *Manager) Fetch(ctx context.Context, shareURL string, localPath string) error {
	res, err := ParseResourceURL(shareURL)
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeOverrideInvalid, err.Error()).
			WithContext("url", shareURL).
			Build())
	}

	switch res.Kind {
	case ResourceKindFolder:
		return m.DownloadFolder(ctx, res.ID, localPath)
	default:
		return m.DownloadFile(ctx, res.ID, localPath)
	}
}

// DownloadFile streams one Drive file to localPath
func (m *Manager) DownloadFile(ctx context.Context, fileID string, localPath string) error {
	m.logger.Debug("Downloading Drive file",
		logging.F("fileId", fileID),
		logging.F("localPath", localPath),
	)

	resp, err := m.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeFetchFailed,
			fmt.Sprintf("Drive download failed: %v", err)).
			WithRetryable(true).
			WithContext("fileId", fileID).
			Build())
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeFetchFailed,
			fmt.Sprintf("writing %s: %v", localPath, err)).
			WithRetryable(true).
			WithContext("fileId", fileID).
			Build())
	}
	return out.Close()
}

// DownloadFolder mirrors a Drive folder into localDir, walking the
// folder breadth first
func (m *Manager) DownloadFolder(ctx context.Context, folderID string, localDir string) error {
	type queued struct {
		id   string
		path string
	}
	queue := []queued{{id: folderID, path: localDir}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if err := os.MkdirAll(current.path, 0755); err != nil {
			return err
		}

		query := fmt.Sprintf("'%s' in parents and trashed = false", current.id)
		pageToken := ""
		for {
			call := m.service.Files.List().
				Q(query).
				Fields("nextPageToken, files(id, name, mimeType)").
				PageSize(100).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			list, err := call.Do()
			if err != nil {
				return utils.NewAppError(utils.NewCLIError(utils.ErrCodeFetchFailed,
					fmt.Sprintf("listing Drive folder %s: %v", current.id, err)).
					WithRetryable(true).
					WithContext("folderId", current.id).
					Build())
			}

			for _, f := range list.Files {
				childPath := filepath.Join(current.path, f.Name)
				if f.MimeType == "application/vnd.google-apps.folder" {
					queue = append(queue, queued{id: f.Id, path: childPath})
					continue
				}
				if err := m.DownloadFile(ctx, f.Id, childPath); err != nil {
					return err
				}
			}

			pageToken = list.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	m.logger.Debug("Drive folder download complete",
		logging.F("folderId", folderID),
		logging.F("localDir", localDir),
	)
	return nil
}
