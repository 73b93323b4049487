package risk

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"MonkHerald/internal/config"
	"MonkHerald/internal/ports"
	"MonkHerald/pkg/logger"
)

// Runner executes the external risk-analysis job as an opaque subprocess.
// The scheduler runs it sequentially after the daily batch; its outcome
// never gates the run-date ledger.
type Runner struct {
	command []string
	logger  *log.Logger
}

var _ ports.RiskJob = (*Runner)(nil)

// NewRunner wires the configured argv; an empty command disables the job.
func NewRunner(cfg config.RiskConfig) *Runner {
	return &Runner{
		command: cfg.Command,
		logger:  logger.New("risk"),
	}
}

// Run launches the subprocess and relays its output. Returns nil without
// doing anything when no command is configured.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Stdout = r.logger.Writer()
	cmd.Stderr = r.logger.Writer()

	r.logger.Printf("running %s", strings.Join(r.command, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("risk job: %w", err)
	}

	return nil
}
