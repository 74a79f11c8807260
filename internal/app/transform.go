package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/core"
	"databinding-compat/internal/policies"
	"databinding-compat/internal/types"
)

// Transform mirrors every unit's input to its output, then patches the
// target class in whichever unit owns it.
func (s Service) Transform(ctx context.Context, req TransformRequest) (TransformResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return TransformResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("transform manifest path is required")
	}
	policy, err := policies.PolicyByName(req.Policy)
	if err != nil {
		return TransformResult{}, err
	}
	set, err := s.Manifest.LoadTransformSet(manifestPath)
	if err != nil {
		return TransformResult{}, err
	}
	set.BootClasspath = append(set.BootClasspath, cleanEntries(req.BootClasspath)...)
	dumpTransformSet(ctx, set, policy)

	syncer := core.NewChangeSynchronizer(s.Files)
	summary, err := syncer.Sync(ctx, set.Units)
	if err != nil {
		return TransformResult{}, err
	}

	index, err := s.NewIndex(set.Classpath(), s.IndexCacheSize)
	if err != nil {
		return TransformResult{}, err
	}
	defer index.Close()

	engine := core.NewPatchEngine(index, core.NewMethodBodyRewriter(policy.Methods), s.Writers, policy.Candidates)
	patch, err := engine.Process(ctx, set.Units)
	if err != nil {
		return TransformResult{}, err
	}
	if reportDir := strings.TrimSpace(req.ReportDir); reportDir != "" && s.NewReport != nil {
		if err := s.NewReport(reportDir).WriteTransformReport(summary, patch); err != nil {
			return TransformResult{}, err
		}
	}
	return TransformResult{
		Units: len(set.Units),
		Sync:  summary,
		Patch: patch,
	}, nil
}

func dumpTransformSet(ctx context.Context, set types.TransformSet, policy policies.PatchPolicy) {
	logger := log.Ctx(ctx)
	logger.Debug().Str("policy", policy.Name).Int("units", len(set.Units)).Msg("transform set")
	for _, unit := range set.Units {
		event := logger.Debug().
			Str("input", unit.Input).
			Str("output", unit.Output).
			Str("format", string(unit.Format)).
			Bool("file_statuses", unit.Changes.HasFileStatuses)
		if unit.Changes.HasFileStatuses {
			event = event.Int("changed_files", len(unit.Changes.Files))
		} else {
			event = event.Str("status", string(unit.Changes.Status))
		}
		event.Msg("unit")
	}
	for _, unit := range set.ReferencedUnits {
		logger.Debug().Str("input", unit.Input).Str("format", string(unit.Format)).Msg("referenced unit")
	}
	logger.Debug().Strs("classpath", set.Classpath()).Msg("classpath")
}

func cleanEntries(values []string) []string {
	var entries []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				entries = append(entries, trimmed)
			}
		}
	}
	return entries
}
