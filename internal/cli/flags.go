package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/spf13/pflag"
)

// dateValue is a YYYY-MM-DD flag bound to an optional date.
type dateValue struct {
	target **time.Time
}

var _ pflag.Value = (*dateValue)(nil)

func newDateValue(target **time.Time) *dateValue {
	return &dateValue{target: target}
}

func (v *dateValue) Set(s string) error {
	d, err := domain.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*v.target = &d
	return nil
}

func (v *dateValue) String() string {
	if v.target == nil || *v.target == nil {
		return ""
	}
	return (*v.target).Format(domain.DateLayout)
}

func (v *dateValue) Type() string {
	return "date"
}

// modeValue restricts a flag to the known scheduling modes.
type modeValue struct {
	target *domain.ScheduleMode
}

var _ pflag.Value = (*modeValue)(nil)

func newModeValue(target *domain.ScheduleMode, def domain.ScheduleMode) *modeValue {
	*target = def
	return &modeValue{target: target}
}

func (v *modeValue) Set(s string) error {
	m, err := parseMode(s)
	if err != nil {
		return err
	}
	*v.target = m
	return nil
}

func (v *modeValue) String() string {
	if v.target == nil {
		return ""
	}
	return string(*v.target)
}

func (v *modeValue) Type() string {
	return "mode"
}

func parseMode(s string) (domain.ScheduleMode, error) {
	m := domain.ScheduleMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid schedule mode %q (expected manual or automatic)", s)
	}
	return m, nil
}

// optionalInt returns a pointer to n when the flag was set, nil otherwise.
func optionalInt(flags *pflag.FlagSet, name string, n int) *int {
	if !flags.Changed(name) {
		return nil
	}
	return &n
}

func parseBoolArg(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on/off, got %q", s)
	}
	return b, nil
}
