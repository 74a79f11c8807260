package app

import (
	"context"

	"databinding-compat/internal/core"
	"databinding-compat/internal/policies"
	"databinding-compat/internal/shared"
	"databinding-compat/internal/types"
)

// Verify reports whether the target class selected by the policy already
// delegates its resource getters to the gate.
func (s Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	policy, err := policies.PolicyByName(req.Policy)
	if err != nil {
		return VerifyResult{}, err
	}
	index, err := s.openIndex(req.Classpath)
	if err != nil {
		return VerifyResult{}, err
	}
	defer index.Close()

	rewriter := core.NewMethodBodyRewriter(policy.Methods)
	last := VerifyResult{}
	for _, candidate := range policy.Candidates {
		present, err := index.Contains(ctx, candidate.Gate)
		if err != nil {
			return VerifyResult{}, err
		}
		if !present {
			continue
		}
		result := VerifyResult{Target: candidate.Target, Gate: candidate.Gate, GateFound: true}
		file, found, err := index.FindContainingFile(ctx, candidate.Target)
		if err != nil {
			return VerifyResult{}, err
		}
		if !found {
			last = result
			continue
		}
		data, err := index.ReadRawBytes(ctx, candidate.Target)
		if err != nil {
			return VerifyResult{}, err
		}
		checks, err := rewriter.Delegates(ctx, data, candidate)
		if err != nil {
			return VerifyResult{}, err
		}
		result.SourceFile = file
		result.Digest = shared.Digest(data)
		result.Methods = checks
		result.Patched = allDelegate(checks)
		return result, nil
	}
	return last, nil
}

func allDelegate(checks []types.MethodCheck) bool {
	if len(checks) == 0 {
		return false
	}
	for _, check := range checks {
		if !check.Present || !check.Delegates {
			return false
		}
	}
	return true
}
