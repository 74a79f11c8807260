package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"databinding-compat/internal/app"
	"databinding-compat/internal/types"
)

type transformOptions struct {
	Manifest      string
	BootClasspath []string
	Policy        string
	ReportDir     string
	Service       serviceOptions
}

func newTransformCommand() *cobra.Command {
	opts := transformOptions{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Mirror transform units and patch the binding base class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransform(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "transform.yaml", "Transform manifest path")
	cmd.Flags().StringSliceVar(&opts.BootClasspath, "boot-classpath", nil, "Additional boot classpath entries")
	cmd.Flags().StringVar(&opts.Policy, "policy", "default", "Patch policy (default, androidx, support)")
	cmd.Flags().StringVar(&opts.ReportDir, "report-dir", "", "Directory for transform.report (disabled when empty)")
	bindServiceFlags(cmd, &opts.Service)
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("boot_classpath", cmd.Flags().Lookup("boot-classpath"))
	_ = viper.BindPFlag("policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("report_dir", cmd.Flags().Lookup("report-dir"))
	_ = viper.BindPFlag("temp_dir", cmd.Flags().Lookup("temp-dir"))
	_ = viper.BindPFlag("index_cache_size", cmd.Flags().Lookup("index-cache-size"))
	return cmd
}

func runTransform(cmd *cobra.Command, opts transformOptions) error {
	ctx := log.Logger.WithContext(cmd.Context())
	service := newAppService(cmd, opts.Service)
	result, err := service.Transform(ctx, app.TransformRequest{
		ManifestPath:  resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		BootClasspath: resolveStrings(cmd, opts.BootClasspath, "boot_classpath", "boot-classpath"),
		Policy:        resolveString(cmd, opts.Policy, "policy", "policy"),
		ReportDir:     resolveString(cmd, opts.ReportDir, "report_dir", "report-dir"),
	})
	if err != nil {
		return err
	}
	fmt.Print(formatTransformResult(result))
	return nil
}

func formatTransformResult(result app.TransformResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "units: %d (copied %d, removed %d, skipped %d)\n",
		result.Units, result.Sync.Copied, result.Sync.Removed, result.Sync.Skipped)
	patch := result.Patch
	fmt.Fprintf(&b, "outcome: %s\n", patch.Outcome)
	switch patch.Outcome {
	case types.PatchOutcomePatched:
		fmt.Fprintf(&b, "target: %s\n", patch.Target.InternalName)
		fmt.Fprintf(&b, "gate: %s\n", patch.Gate.InternalName)
		fmt.Fprintf(&b, "output: %s (%s)\n", patch.Output, patch.Format)
		fmt.Fprintf(&b, "methods: %s\n", strings.Join(patch.Methods, ", "))
		fmt.Fprintf(&b, "digest: %s -> %s\n", patch.OriginalDigest, patch.PatchedDigest)
	case types.PatchOutcomeTargetNotOwned:
		fmt.Fprintf(&b, "target: %s\n", patch.Target.InternalName)
		fmt.Fprintf(&b, "source: %s\n", patch.SourceFile)
	}
	return b.String()
}
