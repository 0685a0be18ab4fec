// Package drive reserves the Google Drive intake surface. The client
// is a deliberate stub: statement folders will eventually be polled
// from Drive, but until credentials are provisioned every operation
// reports the service as unconfigured.
package drive

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrNotConfigured is returned by every Drive operation until real
// credentials are wired in.
var ErrNotConfigured = errors.New("drive: service not configured")

// File is the metadata subset the intake flow cares about.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// Status reports whether the integration is usable and why not.
type Status struct {
	Configured     bool   `json:"configured"`
	Message        string `json:"message"`
	CredentialsSet bool   `json:"credentialsSet"`
}

// Client talks to Google Drive. Only the stub implementation exists.
type Client struct {
	credentialsPath string
}

// NewClient builds a client from a credentials file path. An empty
// path falls back to GOOGLE_CREDENTIALS_PATH.
func NewClient(credentialsPath string) *Client {
	if credentialsPath == "" {
		credentialsPath = os.Getenv("GOOGLE_CREDENTIALS_PATH")
	}
	return &Client{credentialsPath: credentialsPath}
}

// Configured reports whether the client can reach Drive. Always false
// for the stub.
func (c *Client) Configured() bool {
	return false
}

// Status describes the integration state for the status endpoint.
func (c *Client) Status() Status {
	return Status{
		Configured:     c.Configured(),
		Message:        "Google Drive integration is not configured",
		CredentialsSet: c.credentialsPath != "",
	}
}

// ListFiles lists statement files in a Drive folder.
func (c *Client) ListFiles(ctx context.Context, folderID string, extensions []string) ([]File, error) {
	return nil, ErrNotConfigured
}

// Download copies a Drive file to a local path.
func (c *Client) Download(ctx context.Context, fileID, destPath string) error {
	return ErrNotConfigured
}

// Upload pushes a local file into a Drive folder and returns the new
// file id.
func (c *Client) Upload(ctx context.Context, localPath, folderID, name string) (string, error) {
	return "", ErrNotConfigured
}

// Move reparents a Drive file into another folder.
func (c *Client) Move(ctx context.Context, fileID, folderID string) error {
	return ErrNotConfigured
}

// ProcessFolder pulls every statement from a Drive folder into
// localDir and returns the downloaded files.
func (c *Client) ProcessFolder(ctx context.Context, folderID, localDir string) ([]File, error) {
	return nil, ErrNotConfigured
}
