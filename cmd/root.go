package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maximbilan/esmify/internal/clipboard"
	"github.com/maximbilan/esmify/internal/config"
	"github.com/maximbilan/esmify/internal/files"
	"github.com/maximbilan/esmify/internal/logging"
	"github.com/maximbilan/esmify/internal/session"
	"github.com/maximbilan/esmify/internal/ui"
)

var (
	verbose bool

	outputPath    string
	fromClipboard bool
	toClipboard   bool

	// seams for tests
	fs           afero.Fs = afero.NewOsFs()
	newConverter          = func(cfg *config.Config, logger *zap.Logger) (session.Converter, error) {
		return ui.NewClient(cfg, logger)
	}
)

var rootCmd = &cobra.Command{
	Use:   "esmify [file]",
	Short: "AI-assisted CommonJS to ES Module converter",
	Long: `esmify is a TUI that sends legacy CommonJS code to an LLM and shows the
ES Module rewrite, with the compatibility header injected where needed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()

		initialFile := ""
		if len(args) > 0 {
			initialFile = args[0]
		}
		if err := ui.Run(cfg, logger, initialFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a file (or stdin) without the TUI",
	Args:  cobra.MaximumNArgs(1),

	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return runConvert(cmd, cfg, logger, args)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Set(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], displayValue(args[0], args[1]))
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := config.Get(args[0])
		if s, ok := value.(string); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], displayValue(args[0], s))
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], value)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", filepath.Join(configPath, "config.yaml"))
		fmt.Fprintln(cmd.OutOrStdout(), "Set your API key with: esmify config set api_key YOUR_KEY")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the result to this .js file instead of stdout")
	convertCmd.Flags().BoolVar(&fromClipboard, "from-clipboard", false, "read the source from the clipboard")
	convertCmd.Flags().BoolVar(&toClipboard, "copy", false, "also copy the result to the clipboard")

	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(getCmd)
	configCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(convertCmd)
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// runConvert drives one conversion through the same session the TUI uses
func runConvert(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, args []string) error {
	client, err := newConverter(cfg, logger)
	if err != nil {
		return err
	}
	s := session.New(client, cfg.HighlightThreshold, logger)

	switch {
	case len(args) > 0:
		if err := s.Load(fs, args[0]); err != nil {
			return err
		}
	case fromClipboard:
		text, err := clipboard.Paste()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		s.Write(text)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		s.Write(string(data))
	}

	if err := s.Submit(context.Background()); err != nil {
		if errors.Is(err, session.ErrEmptyInput) {
			return errors.New(session.EmptyInputMessage)
		}
		return errors.New(s.ErrorMessage())
	}

	output := s.Output()
	if s.InlineDiagnostic() {
		// the diagnostic is not code; report it instead of writing it out
		return errors.New(output)
	}

	if outputPath != "" {
		saved, err := files.Save(fs, outputPath, output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", saved)
	} else {
		if !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
	}

	if s.HeaderInjected() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Header Injected")
	}
	if toClipboard {
		if err := clipboard.Copy(output); err != nil {
			return fmt.Errorf("failed to copy: %w", err)
		}
	}
	return nil
}

func isSensitiveConfigKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "api_key" || strings.HasSuffix(key, "_api_key")
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}

func displayValue(key, value string) string {
	if isSensitiveConfigKey(key) {
		return maskSecret(value)
	}
	return value
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
