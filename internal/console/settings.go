package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/services"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
)

// Message shown after a successful save.
const UpdatedMessage = "Prices updated"

// State is a step of the settings screen lifecycle.
type State int

const (
	Unauthenticated State = iota
	Loading
	Ready
	Submitting
	LoadError
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case LoadError:
		return "load error"
	default:
		return "unknown"
	}
}

// Field is one amount input: what was typed, what it parsed to, and why it is invalid.
type Field struct {
	Raw   string
	Value int
	Err   error
}

func newField(c models.Category, v int) Field {
	return Field{Raw: strconv.Itoa(v), Value: v, Err: models.ValidateAmount(c, v)}
}

// Draft is the editable copy of the admin settings.
type Draft struct {
	ID              int
	Name            string
	Location        string
	ChargeCustomers bool
	Amounts         [models.NumCategories]Field
}

// Values returns the parsed amounts. Unparseable fields count as 0.
func (d Draft) Values() models.Amounts {
	var out models.Amounts
	for i, f := range d.Amounts {
		out[i] = f.Value
	}
	return out
}

func draftFrom(s models.AdminSettings) Draft {
	d := Draft{ID: s.ID, Name: s.Name, Location: s.Location, ChargeCustomers: s.ChargeCustomers}
	for _, spec := range models.Categories() {
		d.Amounts[spec.Category] = newField(spec.Category, s.Amounts.Get(spec.Category))
	}
	return d
}

// Settings is the settings form controller.
type Settings struct {
	api      services.AdminAPI
	sessions *session.Manager
	ops      ops

	state        State
	session      models.Session
	remote       *models.AdminSettings
	draft        Draft
	chargeChoice bool
}

// NewSettings creates a controller in the Unauthenticated state.
func NewSettings(api services.AdminAPI, sessions *session.Manager) *Settings {
	return &Settings{api: api, sessions: sessions, state: Unauthenticated}
}

// Load starts (or restarts) reading the admin settings.
//
// Without a valid session no task is returned, the state becomes Unauthenticated and the error wraps
// [shared.ErrNotAuthenticated]; the caller redirects to login.
func (c *Settings) Load(ctx context.Context) (Task, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		c.state = Unauthenticated
		c.ops.cancel()
		return nil, err
	}

	c.session = sess
	c.state = Loading
	token := c.ops.begin()
	api := c.api

	return func(ctx context.Context) Result {
		settings, err := api.GetAdmin(ctx, sess)
		return Result{Kind: OpLoad, Token: token, Settings: settings, Err: err}
	}, nil
}

// Submit starts saving the draft amounts.
//
// It is inert unless the screen is Ready, charging is chosen, and every amount is valid.
func (c *Settings) Submit() (Task, error) {
	switch c.state {
	case Ready:
	case Submitting:
		return nil, shared.ErrBusy
	default:
		return nil, fmt.Errorf("%w: state is %s", shared.ErrNotReady, c.state)
	}
	if !c.chargeChoice {
		return nil, shared.ErrChargingDisabled
	}
	if err := c.Errors(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	sess := c.session
	sess.AdminID = c.draft.ID
	amounts := c.draft.Values()
	token := c.ops.begin()
	api := c.api
	c.state = Submitting

	return func(ctx context.Context) Result {
		err := api.UpdateAmounts(ctx, sess, amounts)
		return Result{Kind: OpSubmit, Token: token, Err: err}
	}, nil
}

// Apply folds a finished task into the controller.
func (c *Settings) Apply(r Result) Outcome {
	if (r.Kind != OpLoad && r.Kind != OpSubmit) || !c.ops.accept(r.Token) {
		return Outcome{Stale: true}
	}

	unauthorized := errors.Is(r.Err, shared.ErrNotAuthenticated)

	switch r.Kind {
	case OpLoad:
		if r.Err != nil || r.Settings == nil {
			c.state = LoadError
			if unauthorized {
				c.state = Unauthenticated
			}
			return Outcome{Notice: noticeErr(services.UserMessage(r.Err, services.FallbackLoadMessage)), Unauthorized: unauthorized}
		}

		remote := *r.Settings
		c.remote = &remote
		c.draft = draftFrom(remote)
		c.chargeChoice = remote.ChargeCustomers
		c.state = Ready
		return Outcome{}

	default:
		c.state = Ready
		if r.Err != nil {
			if unauthorized {
				c.state = Unauthenticated
			}
			return Outcome{Notice: noticeErr(services.UserMessage(r.Err, services.FallbackUpdateMessage)), Unauthorized: unauthorized}
		}
		return Outcome{Notice: noticeOK(UpdatedMessage), Reload: true}
	}
}

// Unmount abandons any in-flight operation; its result will be treated as stale.
func (c *Settings) Unmount() {
	c.ops.cancel()
	switch {
	case c.state == Submitting:
		c.state = Ready
	case c.state == Loading && c.remote != nil:
		c.state = Ready
	case c.state == Loading:
		c.state = Unauthenticated
	}
}

// SetCharge records the charge-customers choice. Only accepted in Ready.
func (c *Settings) SetCharge(on bool) bool {
	if c.state != Ready {
		return false
	}
	c.chargeChoice = on
	c.draft.ChargeCustomers = on
	return true
}

// ToggleCharge flips the charge-customers choice.
func (c *Settings) ToggleCharge() bool { return c.SetCharge(!c.chargeChoice) }

// SetAmount replaces the raw input of one amount field and revalidates that field only.
//
// Rejected unless Ready with charging chosen.
func (c *Settings) SetAmount(cat models.Category, raw string) bool {
	if c.state != Ready || !c.chargeChoice || !cat.Valid() {
		return false
	}
	v, err := models.ParseAmount(cat, raw)
	c.draft.Amounts[cat] = Field{Raw: raw, Value: v, Err: err}
	return true
}

func (c *Settings) State() State         { return c.state }
func (c *Settings) Draft() Draft         { return c.draft }
func (c *Settings) ChargeChoice() bool   { return c.chargeChoice }
func (c *Settings) AmountsEnabled() bool { return c.chargeChoice }
func (c *Settings) Busy() bool           { return c.ops.inFlight() }

// Remote returns the last settings read from the server, or nil before the first load.
func (c *Settings) Remote() *models.AdminSettings {
	if c.remote == nil {
		return nil
	}
	r := *c.remote
	return &r
}

// ChartVisible reports whether the price preview should be drawn.
func (c *Settings) ChartVisible() bool { return c.remote != nil && c.chargeChoice }

// ChartSeries returns the draft amounts in category order.
func (c *Settings) ChartSeries() []int { return c.draft.Values().Series() }

// FieldError returns the validation error for cat. Nothing is flagged while charging is off.
func (c *Settings) FieldError(cat models.Category) error {
	if !c.chargeChoice {
		return nil
	}
	return c.draft.Amounts[cat].Err
}

// Errors joins every field error, or returns nil.
func (c *Settings) Errors() error {
	var errs []error
	for _, spec := range models.Categories() {
		if err := c.FieldError(spec.Category); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CanSubmit reports whether the save action is enabled.
func (c *Settings) CanSubmit() bool {
	return c.state == Ready && c.chargeChoice && c.Errors() == nil
}

// SaveLabel is the text of the save action.
func (c *Settings) SaveLabel() string {
	if c.state == Submitting {
		return "Updating ..."
	}
	return "Save"
}
