package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"databinding-compat/internal/app"
)

type inspectOptions struct {
	Classpath []string
	Class     string
	Service   serviceOptions
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the methods of a class found on a classpath",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Classpath, "classpath", nil, "Classpath entries (directories or archives)")
	cmd.Flags().StringVar(&opts.Class, "class", "androidx.databinding.ViewDataBinding", "Class to inspect")
	bindServiceFlags(cmd, &opts.Service)
	_ = viper.BindPFlag("classpath", cmd.Flags().Lookup("classpath"))
	_ = viper.BindPFlag("class", cmd.Flags().Lookup("class"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	ctx := log.Logger.WithContext(cmd.Context())
	service := newAppService(cmd, opts.Service)
	result, err := service.Inspect(ctx, app.InspectRequest{
		Classpath: resolveStrings(cmd, opts.Classpath, "classpath", "classpath"),
		Class:     resolveString(cmd, opts.Class, "class", "class"),
	})
	if err != nil {
		return err
	}
	fmt.Print(formatInspectResult(result))
	return nil
}

func formatInspectResult(result app.InspectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "class: %s\n", result.Class.InternalName)
	fmt.Fprintf(&b, "source: %s\n", result.SourceFile)
	fmt.Fprintf(&b, "version: %d.%d\n", result.MajorVersion, result.MinorVersion)
	fmt.Fprintf(&b, "digest: %s\n", result.Digest)
	fmt.Fprintln(&b, "methods:")
	for _, method := range result.Methods {
		if !method.HasCode {
			fmt.Fprintf(&b, "- 0x%04x %s%s (no code)\n", method.Access, method.Name, method.Descriptor)
			continue
		}
		fmt.Fprintf(&b, "- 0x%04x %s%s stack=%d locals=%d code=%d\n",
			method.Access, method.Name, method.Descriptor, method.MaxStack, method.MaxLocals, method.CodeLength)
	}
	return b.String()
}
