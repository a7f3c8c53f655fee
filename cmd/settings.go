package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/dhunjam/internal/formatter"
	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the venue settings in the requested format.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.loadSettings(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Render(*c.Remote(), format, cmd.Bool("pretty"))
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// SettingsSet changes the given category prices and saves them.
//
// Categories without a flag keep their current value. The command refuses when charging is turned off or
// any resulting amount is below its floor; only the amounts are sent.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	c, err := r.loadSettings(ctx)
	if err != nil {
		return err
	}

	want := c.Remote().Amounts
	changed := 0
	for _, spec := range models.Categories() {
		if cmd.IsSet(spec.Key) {
			want = want.Set(spec.Category, cmd.Int(spec.Key))
			changed++
		}
	}
	if changed == 0 {
		return fmt.Errorf("%w: pass at least one of --custom, --tier1, --tier2, --tier3, --tier4", shared.ErrMissingArgument)
	}
	r.logger.Debug("requested amounts", "amounts", want.Series())

	for _, spec := range models.Categories() {
		if !c.SetAmount(spec.Category, strconv.Itoa(want.Get(spec.Category))) {
			return fmt.Errorf("%w: amounts can't be edited while charging is off", shared.ErrChargingDisabled)
		}
	}

	task, err := c.Submit()
	if err != nil {
		if errors.Is(err, shared.ErrChargingDisabled) {
			return fmt.Errorf("%w: enable charging for this venue before setting prices", err)
		}
		return err
	}

	body := models.AmountsUpdate{Amounts: c.Draft().Values()}
	if cmd.Bool("dry-run") {
		r.logger.Info("dry run, nothing sent")
		return r.writeJSON(body, true)
	}

	res := task(ctx)
	out := c.Apply(res)
	if res.Err != nil {
		return fmt.Errorf("%s: %w", out.Notice.Text, res.Err)
	}
	if err := r.writePlain("✓ %s\n\n", out.Notice.Text); err != nil {
		return err
	}

	// Show what the server now holds, which may differ from what was sent.
	fresh, err := r.loadSettings(ctx)
	if err != nil {
		return err
	}
	data, err := formatter.ExportToText(*fresh.Remote())
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
