package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/pnp/internal/ports/primary"
)

// ProvisioningAdapter is a thin adapter that translates CLI operations to
// ProvisioningService calls.
type ProvisioningAdapter struct {
	service primary.ProvisioningService
	out     io.Writer
}

// NewProvisioningAdapter creates a new ProvisioningAdapter with the given service.
func NewProvisioningAdapter(service primary.ProvisioningService, out io.Writer) *ProvisioningAdapter {
	return &ProvisioningAdapter{
		service: service,
		out:     out,
	}
}

// Apply runs a template and prints one row per declared object. A partial
// result is still printed when the run fails.
func (a *ProvisioningAdapter) Apply(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error) {
	result, err := a.service.Apply(ctx, req)
	if result != nil {
		a.printResult(result)
	}
	if err != nil {
		return result, fmt.Errorf("failed to apply template: %w", err)
	}

	fmt.Fprintf(a.out, "%s Applied %s (%d commits, run %s)\n",
		color.New(color.FgGreen).Sprint("✓"), req.TemplatePath, result.Commits(), result.RunID)
	return result, nil
}

func (a *ProvisioningAdapter) printResult(result *primary.ApplyResult) {
	for _, h := range result.Handlers {
		fmt.Fprintf(a.out, "\n%s\n", h.Handler)
		if len(h.Outcomes) == 0 {
			fmt.Fprintln(a.out, "  (nothing declared)")
			continue
		}

		w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "  NAME\tID\tSTATUS\tDETAIL")
		for _, o := range h.Outcomes {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", o.Name, o.ID, StatusLabel(o.Status), o.Reason)
		}
		w.Flush()
	}

	for _, section := range result.Ignored {
		fmt.Fprintf(a.out, "%s section %s has no handler\n", color.New(color.FgYellow).Sprint("!"), section)
	}
	fmt.Fprintln(a.out)
}

// Validate checks a template and reports the outcome.
func (a *ProvisioningAdapter) Validate(ctx context.Context, templatePath string) error {
	if err := a.service.Validate(ctx, templatePath); err != nil {
		fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgRed).Sprint("✗"), templatePath)
		return err
	}
	fmt.Fprintf(a.out, "%s %s is valid\n", color.New(color.FgGreen).Sprint("✓"), templatePath)
	return nil
}

// StatusLabel renders an outcome status for terminal output.
func StatusLabel(status string) string {
	switch status {
	case primary.StatusCreated, primary.StatusRecreated:
		return color.New(color.FgGreen).Sprint(status)
	case primary.StatusUpdated:
		return color.New(color.FgBlue).Sprint(status)
	case primary.StatusSkipped:
		return color.New(color.FgYellow).Sprint(status)
	case primary.StatusFailed:
		return color.New(color.FgRed).Sprint(status)
	}
	return status
}
