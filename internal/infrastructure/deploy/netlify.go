package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"platewatch/internal/ports"
)

// Netlify deploys the static site directory with the Netlify CLI. Invoked
// once after the pipeline completes, independent of outcome; failures are
// logged by the caller, never fatal.
type Netlify struct {
	dir    string
	logger *slog.Logger
}

var _ ports.Deployer = (*Netlify)(nil)

// NewNetlify points the deployer at the site directory.
func NewNetlify(dir string, log *slog.Logger) *Netlify {
	if log == nil {
		log = slog.Default()
	}
	return &Netlify{dir: dir, logger: log}
}

// Deploy runs `npx netlify deploy --dir=<dir> --prod` and surfaces its
// output through the logger.
func (n *Netlify) Deploy(ctx context.Context) error {
	if n.dir == "" {
		return fmt.Errorf("deploy directory is not configured")
	}

	cmd := exec.CommandContext(ctx, "npx", "netlify", "deploy", "--dir="+n.dir, "--prod")
	out, err := cmd.CombinedOutput()

	if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
		n.logger.Debug("netlify output", "output", trimmed)
	}

	if err != nil {
		return fmt.Errorf("netlify deploy: %w", err)
	}

	n.logger.Info("deploy complete", "dir", n.dir)
	return nil
}

// Noop skips deployment. Used when the invoking workflow owns the deploy
// step.
type Noop struct{}

var _ ports.Deployer = (*Noop)(nil)

// NewNoop returns the skipping deployer.
func NewNoop() *Noop {
	return &Noop{}
}

// Deploy does nothing.
func (n *Noop) Deploy(_ context.Context) error {
	return nil
}
