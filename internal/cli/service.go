package cli

import (
	"github.com/spf13/cobra"

	"databinding-compat/internal/adapters"
	"databinding-compat/internal/app"
)

type serviceOptions struct {
	TempDir        string
	IndexCacheSize int
}

func bindServiceFlags(cmd *cobra.Command, opts *serviceOptions) {
	cmd.Flags().StringVar(&opts.TempDir, "temp-dir", "", "Directory for temporary archives")
	cmd.Flags().IntVar(&opts.IndexCacheSize, "index-cache-size", adapters.DefaultIndexCacheSize, "Cached archive listings")
}

func newAppService(cmd *cobra.Command, opts serviceOptions) app.Service {
	service := app.NewService()
	service.Writers = adapters.NewContainerWriters(resolveString(cmd, opts.TempDir, "temp_dir", "temp-dir"))
	if size := resolveInt(cmd, opts.IndexCacheSize, "index_cache_size", "index-cache-size"); size > 0 {
		service.IndexCacheSize = size
	}
	return service
}
