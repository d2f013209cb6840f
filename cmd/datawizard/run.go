package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hyperjump/datawizard/internal/cli"
	"github.com/hyperjump/datawizard/internal/models"
	"github.com/hyperjump/datawizard/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const runUsage = "Usage: datawizard run <file_path or 'none'> <output_txt_path> <user_prompt> <output_format> <mode>\n" +
	"  output_format: txt | excel | word\n" +
	"  mode:          file | ocr | prompt-only"

var runCmd = &cobra.Command{
	Use:   "run <source|none> <output-text-path> <instruction> <txt|excel|word> <file|ocr|prompt-only>",
	Short: "Process one document and write the generated outputs",
	Long: "Extracts a snippet from the source (or none for prompt-only), asks the generation service to apply the instruction, " +
		"writes the raw reply to the output path, and derives <base>_final.txt, <base>_parsed.xlsx, or <base>_output.docx. " +
		"Prints OK on completion or an [ERROR] line on failure.",
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

var (
	runFailOnDegraded bool
	runOutputFormat   string
)

func init() {
	runCmd.Flags().BoolVar(&runFailOnDegraded, "fail-on-degraded", false, "exit 1 when any stage degraded (the text output is still written)")
	runCmd.Flags().StringVarP(&runOutputFormat, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(runCmd)
}

type runOptions struct {
	configPath     string
	debug          bool
	failOnDegraded bool
	output         string
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := executeRun(ctx, cmd.OutOrStdout(), args, runOptions{
		configPath:     configPath,
		debug:          debugFlag,
		failOnDegraded: runFailOnDegraded,
		output:         runOutputFormat,
	})
	if code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}

// executeRun performs one run and returns the process exit code. Every outcome ends with a
// completion line on out: OK, or an [ERROR] line.
func executeRun(ctx context.Context, out io.Writer, args []string, opts runOptions) int {
	if len(args) < 5 {
		fmt.Fprintln(out, runUsage)
		return 0
	}
	format, err := cli.ParseOutputFormat(opts.output)
	if err != nil {
		fmt.Fprintln(out, cli.ErrorLine(err.Error()))
		return 1
	}

	req := models.RunRequest{
		Source:      args[0],
		OutputPath:  args[1],
		Instruction: args[2],
		Format:      models.Format(args[3]),
		Mode:        models.Mode(args[4]),
	}
	if err := pipeline.Validate(&req); err != nil {
		fmt.Fprintln(out, validationLine(err, args))
		return 1
	}

	a, err := setup(opts.configPath, opts.debug)
	if err != nil {
		fmt.Fprintln(out, cli.ErrorLine(err.Error()))
		return 1
	}
	defer a.Close()
	a.openHistory()
	a.buildPipeline(ctx)

	res, runErr := a.pipeline.Run(ctx, req)
	if runErr != nil {
		a.logger.Error("run failed", zap.Error(runErr))
	}
	if err := cli.WriteRunResult(out, res, format, opts.failOnDegraded); err != nil {
		a.logger.Error("output failed", zap.Error(err))
		return 1
	}
	switch res.Status() {
	case models.StatusFatal:
		return 1
	case models.StatusDegraded:
		if opts.failOnDegraded {
			return 1
		}
	}
	return 0
}

func validationLine(err error, args []string) string {
	switch {
	case errors.Is(err, pipeline.ErrUnknownFormat):
		return cli.ErrorLine("Format output tidak dikenali: " + strings.ToLower(args[3]))
	case errors.Is(err, pipeline.ErrUnknownMode):
		return cli.ErrorLine("Mode tidak dikenali: " + strings.ToLower(args[4]))
	default:
		return cli.ErrorLine(err.Error())
	}
}
