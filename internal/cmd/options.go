package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	goFlags "github.com/jessevdk/go-flags"
)

// Options represents command-line arguments.
type Options struct {
	// ConfigPath specifies path to the configuration file.
	ConfigPath string `short:"c" long:"config-path" description:"Path to the config file." required:"true"`

	// Verbose defines whether we should write the DEBUG-level log or not.
	Verbose bool `yaml:"verbose" short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`
}

// type check
var _ fmt.Stringer = (*Options)(nil)

// String implements the fmt.Stringer interface for *Options.
func (o *Options) String() (str string) {
	b, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Sprintf("Failed to stringify options due to %s", err)
	}

	return string(b)
}

// Program commands.
const (
	commandInstall = "install"
	commandLink    = "link"
	commandStart   = "start"
	commandStop    = "stop"
	commandRun     = "run"
)

// parseOptions parses os.Args and creates the Options struct.  command is
// the requested program command, commandInstall when none is given.
func parseOptions() (o *Options, command string, err error) {
	opts := &Options{}
	parser := goFlags.NewParser(opts, goFlags.Default|goFlags.IgnoreUnknown)
	remainingArgs, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		return nil, "", err
	}

	switch len(remainingArgs) {
	case 0:
		return opts, commandInstall, nil
	case 1:
		return opts, remainingArgs[0], nil
	default:
		return nil, "", fmt.Errorf("unknown arguments: %v", remainingArgs)
	}
}
