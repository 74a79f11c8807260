package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/shared"
	"databinding-compat/internal/types"
)

// PatchEngine locates the target class of the first applicable candidate,
// rewrites it and writes it back into the unit that owns it.
type PatchEngine struct {
	Index      ports.ArtifactIndexPort
	Rewriter   ports.ClassRewriterPort
	Writers    map[types.Format]ports.ContainerWriterPort
	Candidates []types.ClassTarget
}

func NewPatchEngine(index ports.ArtifactIndexPort, rewriter ports.ClassRewriterPort, writers map[types.Format]ports.ContainerWriterPort, candidates []types.ClassTarget) PatchEngine {
	return PatchEngine{
		Index:      index,
		Rewriter:   rewriter,
		Writers:    writers,
		Candidates: candidates,
	}
}

// Process patches at most one class. Missing gates, missing targets and
// targets outside every unit end the run without error; only read and
// write failures are returned.
func (e PatchEngine) Process(ctx context.Context, units []types.TransformUnit) (types.PatchResult, error) {
	if e.Index == nil || e.Rewriter == nil {
		return types.PatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("patch engine requires artifact index and rewriter ports")
	}
	logger := log.Ctx(ctx)
	result := types.PatchResult{Outcome: types.PatchOutcomeGateAbsent}
	for _, candidate := range e.Candidates {
		present, err := e.Index.Contains(ctx, candidate.Gate)
		if err != nil {
			return types.PatchResult{}, lookupError(candidate.Gate, err)
		}
		if !present {
			logger.Debug().Str("gate", candidate.Gate.ClassName()).Msg("gate class not on classpath")
			continue
		}
		logger.Info().
			Str("gate", candidate.Gate.ClassName()).
			Str("class", candidate.Target.ClassName()).
			Msg("gate class found, patching target")
		result = types.PatchResult{Target: candidate.Target, Gate: candidate.Gate}

		file, found, err := e.Index.FindContainingFile(ctx, candidate.Target)
		if err != nil {
			return types.PatchResult{}, lookupError(candidate.Target, err)
		}
		if !found {
			logger.Info().Str("class", candidate.Target.ClassName()).Msg("target class not found, skipping")
			result.Outcome = types.PatchOutcomeTargetAbsent
			continue
		}
		unit, owned := owningUnit(units, file)
		if !owned {
			logger.Info().
				Str("class", candidate.Target.ClassName()).
				Str("path", file).
				Msg("target class is not in a transformed unit, skipping")
			result.Outcome = types.PatchOutcomeTargetNotOwned
			result.SourceFile = file
			continue
		}
		return e.patch(ctx, candidate, file, unit)
	}
	logger.Info().Str("outcome", string(result.Outcome)).Msg("no class patched")
	return result, nil
}

func (e PatchEngine) patch(ctx context.Context, candidate types.ClassTarget, file string, unit types.TransformUnit) (types.PatchResult, error) {
	writer, ok := e.Writers[unit.Format]
	if !ok || writer == nil {
		return types.PatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("no container writer for format %q", unit.Format))
	}
	data, err := e.Index.ReadRawBytes(ctx, candidate.Target)
	if err != nil {
		return types.PatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to read class bytes for %s", candidate.Target)).
			WithCause(err)
	}
	rewritten, err := e.Rewriter.Rewrite(ctx, data, candidate)
	if err != nil {
		return types.PatchResult{}, err
	}
	if err := writer.Persist(ctx, unit.Output, candidate.Target, rewritten.Data); err != nil {
		return types.PatchResult{}, err
	}
	result := types.PatchResult{
		Outcome:        types.PatchOutcomePatched,
		Target:         candidate.Target,
		Gate:           candidate.Gate,
		SourceFile:     file,
		Output:         unit.Output,
		Format:         unit.Format,
		Methods:        rewritten.Replaced,
		OriginalDigest: shared.Digest(data),
		PatchedDigest:  shared.Digest(rewritten.Data),
	}
	log.Ctx(ctx).Info().
		Str("class", candidate.Target.ClassName()).
		Str("output", unit.Output).
		Strs("methods", rewritten.Replaced).
		Msg("class patched")
	return result, nil
}

// owningUnit finds the unit whose input is the classpath entry holding the
// target. Paths are compared after canonicalization.
func owningUnit(units []types.TransformUnit, file string) (types.TransformUnit, bool) {
	canonical := shared.CanonicalPath(file)
	for _, unit := range units {
		if shared.CanonicalPath(unit.Input) == canonical {
			return unit, true
		}
	}
	return types.TransformUnit{}, false
}

func lookupError(class types.ObjectType, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("classpath lookup failed for %s", class)).
		WithCause(err)
}
