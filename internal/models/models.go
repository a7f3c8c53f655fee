package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dhunjam/internal/shared"
)

// Category identifies one of the fixed song request price tiers.
type Category int

const (
	Custom Category = iota
	Tier1
	Tier2
	Tier3
	Tier4
)

// NumCategories is the number of price categories.
const NumCategories = 5

// CategorySpec describes a category: its config key, wire key, minimum amount and display label.
type CategorySpec struct {
	Category Category
	Key      string
	WireKey  string
	Floor    int
	Label    string
}

var categories = [NumCategories]CategorySpec{
	{Category: Custom, Key: "custom", WireKey: "category_6", Floor: 99, Label: "Custom"},
	{Category: Tier1, Key: "tier1", WireKey: "category_7", Floor: 79, Label: "Category 1"},
	{Category: Tier2, Key: "tier2", WireKey: "category_8", Floor: 59, Label: "Category 2"},
	{Category: Tier3, Key: "tier3", WireKey: "category_9", Floor: 39, Label: "Category 3"},
	{Category: Tier4, Key: "tier4", WireKey: "category_10", Floor: 19, Label: "Category 4"},
}

// Categories returns the category table in display order.
func Categories() []CategorySpec {
	out := make([]CategorySpec, NumCategories)
	copy(out, categories[:])
	return out
}

// Spec returns the table entry for c. It panics on an out of range category.
func (c Category) Spec() CategorySpec { return categories[c] }

func (c Category) Key() string     { return c.Spec().Key }
func (c Category) WireKey() string { return c.Spec().WireKey }
func (c Category) Floor() int      { return c.Spec().Floor }
func (c Category) Label() string   { return c.Spec().Label }
func (c Category) String() string  { return c.Key() }

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return c >= Custom && c <= Tier4 }

// ParseCategory accepts either the config key ("tier1") or the wire key ("category_7").
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, spec := range categories {
		if s == spec.Key || s == spec.WireKey {
			return spec.Category, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", shared.ErrInvalidArgument, s)
}

// ValidateAmount checks v against the floor of c.
func ValidateAmount(c Category, v int) error {
	if v < c.Floor() {
		return fmt.Errorf("%w: %s must be at least %d", shared.ErrBelowFloor, c.Label(), c.Floor())
	}
	return nil
}

// ParseAmount converts raw form input to an amount and validates it.
//
// The parsed value is returned even when it is below the floor so callers can keep displaying it.
func ParseAmount(c Category, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrNotInteger, c.Label())
	}
	return v, ValidateAmount(c, v)
}

// Amounts holds one minimum price per category, indexed by [Category].
type Amounts [NumCategories]int

// Get returns the amount for c.
func (a Amounts) Get(c Category) int { return a[c] }

// Set returns a copy of a with c replaced by v.
func (a Amounts) Set(c Category, v int) Amounts {
	a[c] = v
	return a
}

// Series returns the amounts in display order.
func (a Amounts) Series() []int {
	out := make([]int, NumCategories)
	copy(out, a[:])
	return out
}

// Validate returns every floor violation joined together, or nil.
func (a Amounts) Validate() error {
	var errs []error
	for _, spec := range categories {
		if err := ValidateAmount(spec.Category, a[spec.Category]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type wireAmounts struct {
	Custom *int `json:"category_6"`
	Tier1  *int `json:"category_7"`
	Tier2  *int `json:"category_8"`
	Tier3  *int `json:"category_9"`
	Tier4  *int `json:"category_10"`
}

func (w *wireAmounts) fields() [NumCategories]**int {
	return [NumCategories]**int{&w.Custom, &w.Tier1, &w.Tier2, &w.Tier3, &w.Tier4}
}

// MarshalJSON encodes the amounts with their wire keys.
func (a Amounts) MarshalJSON() ([]byte, error) {
	var w wireAmounts
	for i, f := range w.fields() {
		v := a[i]
		*f = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes wire keys and fails when any category is missing.
func (a *Amounts) UnmarshalJSON(data []byte) error {
	var w wireAmounts
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var out Amounts
	for i, f := range w.fields() {
		if *f == nil {
			return fmt.Errorf("%w: amount missing %s", shared.ErrUnexpectedResponse, categories[i].WireKey)
		}
		out[i] = **f
	}
	*a = out
	return nil
}

// AdminSettings is the venue admin record served by GET /admin/{id}.
type AdminSettings struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	ChargeCustomers bool    `json:"charge_customers"`
	Amounts         Amounts `json:"amount"`
}

// Heading is the screen title, e.g. "Cafe X, Downtown on Dhun Jam".
func (s AdminSettings) Heading() string {
	return fmt.Sprintf("%s, %s on Dhun Jam", s.Name, s.Location)
}

// AmountsUpdate is the PUT /admin/{id} body. Only amounts are ever sent.
type AmountsUpdate struct {
	Amounts Amounts `json:"amount"`
}

// Credentials is the POST /admin/login body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the signed-in venue admin.
type Session struct {
	AdminID   int       `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool { return s != nil && s.Token != "" }
