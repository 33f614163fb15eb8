package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/utils"
)

const version = "0.3.0"

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "appinfo-lint",
		Short:         "Validate application descriptors",
		Long:          `Parse appinfo descriptors (JSON, YAML or TOML) the way the runtime does and report what it would load.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print field warnings to stderr")

	logger := func() *zap.Logger {
		if !verbose {
			return zap.NewNop()
		}
		l, err := logging.New(logging.Config{
			Level:       "warn",
			Development: true,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return zap.NewNop()
		}
		return l.Logger
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "validate <file>...",
			Short: "Parse descriptors and print a summary per file",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return validate(cmd.OutOrStdout(), logger(), args)
			},
		},
		&cobra.Command{
			Use:   "show <file>",
			Short: "Print the parsed manifest as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return show(cmd.OutOrStdout(), logger(), args[0])
			},
		},
	)
	return rootCmd
}

// load parses one descriptor with the encoding picked from its extension
func load(path string, log *zap.Logger) (*manifest.Manifest, manifest.Format, error) {
	format := manifest.FormatFromPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, format, err
	}
	m, err := manifest.ParseFormat(data, format,
		manifest.WithLogger(log),
		manifest.WithFolderPath(filepath.Dir(path)),
	)
	return m, format, err
}

func validate(w io.Writer, log *zap.Logger, paths []string) error {
	failed := 0
	for _, path := range paths {
		m, format, err := load(path, log.With(zap.String("path", path)))
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			continue
		}

		fmt.Fprintf(w, "ok   %s id=%s trust=%s format=%s", path, m.ID(), m.TrustLevel(), format)
		if declared := m.DeclaredTrustLevel(); declared != "" && declared != m.TrustLevel().String() {
			fmt.Fprintf(w, " declared=%q", declared)
		}
		if err := utils.ValidateAppID(m.ID()); err != nil {
			fmt.Fprintf(w, " warning=%q", err.Error())
		}
		fmt.Fprintln(w)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d descriptors failed", failed, len(paths))
	}
	return nil
}

func show(w io.Writer, log *zap.Logger, path string) error {
	m, _, err := load(path, log)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out, err := sonic.ConfigStd.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
