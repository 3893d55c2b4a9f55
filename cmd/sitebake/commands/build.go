package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebake/internal/build"
	"git.home.luguber.info/inful/sitebake/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	return RunBuild(cfg, nil)
}

// RunBuild renders documents (all of them when documents is empty) and
// prints a short summary on stdout.
func RunBuild(cfg *config.Config, documents []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, flush := newService(cfg)
	defer flush()

	result, err := svc.Run(ctx, build.BuildRequest{Config: cfg, Documents: documents})
	if err != nil {
		return err
	}

	fmt.Printf("Rendered %d page(s) into %s", len(result.Pages), result.OutputPath)
	if result.Warnings > 0 {
		fmt.Printf(" with %d warning(s)", result.Warnings)
	}
	if result.Unchanged {
		fmt.Print(", unchanged since previous build")
	}
	fmt.Println()
	return nil
}
