package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PrintSubmitter hands a file to the physical printer.
type PrintSubmitter interface {
	Print(ctx context.Context, path string) error
}

// LPPrinter submits files through the CUPS lp command. An empty name
// uses the system default printer.
type LPPrinter struct {
	Name string
}

func (p *LPPrinter) Print(ctx context.Context, path string) error {
	args := []string{}
	if p.Name != "" {
		args = append(args, "-d", p.Name)
	}
	args = append(args, path)

	cmd := exec.CommandContext(ctx, "lp", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("lp failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
