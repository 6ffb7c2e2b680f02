package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/haystack/tz"
)

// TZResult is the JSON payload of the tz command.
type TZResult struct {
	Haystack string `json:"haystack"`
	IANA     string `json:"iana"`
}

// NewTZCommand creates the tz command.
func NewTZCommand(rootOpts *RootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "tz <name>",
		Short: "Map between Haystack and IANA time zone names",
		Long: `Map a time zone name in either direction.

A name containing '/' is treated as an IANA id and mapped to its Haystack
name ("America/New_York" -> "New_York"). Any other name is looked up as a
Haystack name ("New_York" -> "America/New_York").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runTZList(rootOpts, cmd)
			}
			return runTZ(rootOpts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every known zone")

	return cmd
}

func runTZ(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if strings.Contains(name, "/") {
		hs := tz.HaystackName(name)
		return f.Success(hs, TZResult{Haystack: hs, IANA: name})
	}

	iana, err := tz.Default().IANA(name)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeNotFound, "unknown time zone", err)
	}
	return f.Success(iana, TZResult{Haystack: name, IANA: iana})
}

func runTZList(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	zones := tz.Zones()
	res := make([]TZResult, len(zones))
	lines := make([]string, len(zones))
	for i, z := range zones {
		res[i] = TZResult{Haystack: tz.HaystackName(z), IANA: z}
		lines[i] = res[i].Haystack + "\t" + z
	}
	return f.Success(strings.Join(lines, "\n"), res)
}
