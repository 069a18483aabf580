package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	positiveIntFlagTypeName            = "positive-int"
	positiveIntFlagInvalidValueMessage = "invalid value %q for --%s: must be a positive integer"
)

// positiveIntFlagValue accepts only integers greater than zero.
type positiveIntFlagValue struct {
	target  *int
	flagKey string
}

func (value *positiveIntFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf(positiveIntFlagInvalidValueMessage, input, "")
	}
	parsed, parseErr := strconv.Atoi(strings.TrimSpace(input))
	if parseErr != nil || parsed <= 0 {
		return fmt.Errorf(positiveIntFlagInvalidValueMessage, input, value.flagKey)
	}
	*value.target = parsed
	return nil
}

func (value *positiveIntFlagValue) String() string {
	if value == nil || value.target == nil {
		return "0"
	}
	return strconv.Itoa(*value.target)
}

func (value *positiveIntFlagValue) Type() string {
	return positiveIntFlagTypeName
}

func registerPositiveIntFlag(flagSet *pflag.FlagSet, target *int, name string, defaultValue int, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&positiveIntFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.Itoa(defaultValue)
	}
}
