package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/assetgrid/internal/publish"
)

// Environment variables holding object storage credentials.
const (
	EnvS3AccessKey = "ASSETGRID_S3_ACCESS_KEY"
	EnvS3SecretKey = "ASSETGRID_S3_SECRET_KEY"
)

// Publish uploads the publish root to the configured bucket. A nil store
// connects to the configured endpoint with credentials from the environment.
func (a *App) Publish(ctx context.Context, store publish.Store) (*publish.Report, error) {
	ctx = a.context(ctx)
	def := a.model.Publish
	if def == nil {
		return nil, fmt.Errorf("no publish block in %s", a.model.Source)
	}

	root, err := a.model.ResolveDir(def.Root)
	if err != nil {
		return nil, err
	}

	if store == nil {
		s3, err := publish.NewS3Store(publish.S3Config{
			Endpoint:  def.Endpoint,
			Region:    def.Region,
			AccessKey: os.Getenv(EnvS3AccessKey),
			SecretKey: os.Getenv(EnvS3SecretKey),
			Bucket:    def.Bucket,
			UseSSL:    def.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		store = s3
	}

	return publish.NewPublisher(store, def.Prefix).Publish(ctx, root)
}
