package app

import (
	"databinding-compat/internal/adapters"
	"databinding-compat/internal/ports"
	"databinding-compat/internal/types"
)

type Service struct {
	Manifest       ports.TransformManifestPort
	Files          ports.FileMirrorPort
	NewIndex       func(classpath []string, cacheSize int) (ports.ArtifactIndexPort, error)
	Writers        map[types.Format]ports.ContainerWriterPort
	NewReport      func(dir string) ports.ReportPort
	IndexCacheSize int
}

func NewService() Service {
	return Service{
		Manifest:       adapters.NewManifestFileAdapter(),
		Files:          adapters.NewFileMirrorAdapter(),
		NewIndex:       newClasspathIndex,
		Writers:        adapters.NewContainerWriters(""),
		NewReport:      newReportFile,
		IndexCacheSize: adapters.DefaultIndexCacheSize,
	}
}

func newClasspathIndex(classpath []string, cacheSize int) (ports.ArtifactIndexPort, error) {
	return adapters.NewClasspathIndexAdapter(classpath, cacheSize)
}

func newReportFile(dir string) ports.ReportPort {
	return adapters.NewReportFileAdapter(dir)
}
