package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"databinding-compat/internal/app"
)

type verifyOptions struct {
	Classpath []string
	Policy    string
	Service   serviceOptions
}

func newVerifyCommand() *cobra.Command {
	opts := verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report whether the binding base class already delegates to AppCompat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Classpath, "classpath", nil, "Classpath entries (directories or archives)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "default", "Patch policy (default, androidx, support)")
	bindServiceFlags(cmd, &opts.Service)
	_ = viper.BindPFlag("classpath", cmd.Flags().Lookup("classpath"))
	_ = viper.BindPFlag("policy", cmd.Flags().Lookup("policy"))
	return cmd
}

func runVerify(cmd *cobra.Command, opts verifyOptions) error {
	ctx := log.Logger.WithContext(cmd.Context())
	service := newAppService(cmd, opts.Service)
	result, err := service.Verify(ctx, app.VerifyRequest{
		Classpath: resolveStrings(cmd, opts.Classpath, "classpath", "classpath"),
		Policy:    resolveString(cmd, opts.Policy, "policy", "policy"),
	})
	if err != nil {
		return err
	}
	fmt.Print(formatVerifyResult(result))
	return nil
}

func formatVerifyResult(result app.VerifyResult) string {
	var b strings.Builder
	if !result.GateFound {
		fmt.Fprintln(&b, "gate: not found")
		return b.String()
	}
	fmt.Fprintf(&b, "gate: %s\n", result.Gate.InternalName)
	if result.SourceFile == "" {
		fmt.Fprintf(&b, "target: %s not found\n", result.Target.InternalName)
		return b.String()
	}
	fmt.Fprintf(&b, "target: %s (%s)\n", result.Target.InternalName, result.SourceFile)
	fmt.Fprintf(&b, "digest: %s\n", result.Digest)
	for _, check := range result.Methods {
		state := "original"
		switch {
		case !check.Present:
			state = "missing"
		case check.Delegates:
			state = "delegates"
		}
		fmt.Fprintf(&b, "- %s: %s\n", check.Method, state)
	}
	fmt.Fprintf(&b, "patched: %t\n", result.Patched)
	return b.String()
}
