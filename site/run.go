package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/phtj/webtero/archive"
	"github.com/phtj/webtero/state"
	"github.com/phtj/webtero/zotero"
)

// Run implements the build command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	groupPath := cmd.Args().Get(0)
	if len(groupPath) == 0 {
		return errors.New("no group path has been specified")
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite, env.ArchivePath = cmd.Bool("overwrite"), cmd.String("archive")

	buildID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("unable to generate build ID: %w", err)
	}

	client, err := zotero.NewClient(&env.Cfg.Zotero, log)
	if err != nil {
		return err
	}

	diag := NewDiagnostics(log)
	builder := &Builder{
		Cfg:       env.Cfg,
		Client:    client,
		Log:       log,
		Diag:      diag,
		Overwrite: env.Overwrite,
	}

	log.Info("Generation starting", zap.Stringer("build_id", buildID), zap.String("source", groupPath), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Generation completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	result, err := builder.BuildPage(ctx, groupPath, dst)
	if err != nil {
		return err
	}

	env.Rpt.Store("site/"+env.Cfg.Site.OutputName, result.OutputPath)
	env.Rpt.StoreData("build/diagnostics.txt", buildListing(buildID, result))

	if n := len(result.Diagnostics); n > 0 {
		log.Warn("Page generated with degradations", zap.Int("count", n))
	}
	log.Info("Page written", zap.String("path", result.OutputPath), zap.Int("tabs", result.TabCount), zap.String("assets", result.Assets.Summary()))

	if len(env.ArchivePath) > 0 {
		if err := archive.Create(env.ArchivePath, dst); err != nil {
			return fmt.Errorf("unable to archive generated site: %w", err)
		}
		log.Info("Site archived", zap.String("path", env.ArchivePath))
	}
	return nil
}

// buildListing renders the debug report summary of one build.
func buildListing(buildID uuid.UUID, result *BuildResult) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "build\t%s\n", buildID)
	fmt.Fprintf(&b, "output\t%s\n", result.OutputPath)
	fmt.Fprintf(&b, "tabs\t%d\n", result.TabCount)
	fmt.Fprintf(&b, "assets\t%s\n", result.Assets.Summary())
	for _, name := range result.Assets.Materialized {
		fmt.Fprintf(&b, "materialized\t%s\n", name)
	}
	for _, name := range result.Assets.Skipped {
		fmt.Fprintf(&b, "skipped\t%s\n", name)
	}
	for _, name := range result.Assets.Failed {
		fmt.Fprintf(&b, "failed\t%s\n", name)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(&b, "degraded\t%s\n", d.String())
	}
	return []byte(b.String())
}
