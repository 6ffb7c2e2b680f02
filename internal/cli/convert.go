package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/haystack/hsjson"
	"github.com/roach88/haystack/internal/config"
	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/zinc"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	From   string // zinc | json
	To     string // zinc | json
	Indent bool
	Check  bool   // fail on error and incomplete grids
	Config string // profile whose format replaces the --from default
}

var wireFormats = []string{"zinc", "json"}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a value between Zinc and Haystack JSON",
		Long: `Read one Haystack value (usually a grid) and write it in another format.

Input comes from file, or stdin when no file is given. The converted value
is written to stdout as-is; --format only affects error reporting.

With --config, the profile's wire format is the default for --from and
--to defaults to the other format.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "zinc", "input format (zinc|json)")
	cmd.Flags().StringVar(&opts.To, "to", "json", "output format (zinc|json)")
	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "indent JSON output")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "fail when the input is an error or incomplete grid")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "client profile (YAML) supplying the wire format")

	return cmd
}

func runConvert(opts *ConvertOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Config != "" {
		profile, err := config.Load(opts.Config)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "loading profile", err)
		}
		if !cmd.Flags().Changed("from") {
			opts.From = profile.WireFormat()
		}
		if !cmd.Flags().Changed("to") {
			opts.To = otherFormat(opts.From)
		}
	}
	for _, v := range []string{opts.From, opts.To} {
		if v != "zinc" && v != "json" {
			return f.Fail(ExitCommandError, ErrCodeGeneric,
				fmt.Sprintf("unknown format %q: must be one of %v", v, wireFormats), nil)
		}
	}

	in := cmd.InOrStdin()
	name := "<stdin>"
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeRead, "reading input", err)
		}
		defer file.Close()
		in, name = file, args[0]
	}

	v, err := decode(opts.From, in)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDecode, "decoding "+name, err)
	}
	opts.logger().Debug("decoded input", "source", name, "from", opts.From, "kind", describe(v))
	if g, ok := v.(kind.Grid); ok && opts.Check {
		if err := kind.CheckResponseMeta(g); err != nil {
			return f.Fail(ExitFailure, ErrCodeDecode, "checking "+name, err)
		}
	}

	out, err := encode(opts.To, v, opts.Indent)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeEncode, "encoding "+opts.To, err)
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	return nil
}

func otherFormat(format string) string {
	if format == "json" {
		return "zinc"
	}
	return "json"
}

func decode(format string, r io.Reader) (kind.Kind, error) {
	if format == "json" {
		return hsjson.NewDecoder(r).Decode()
	}
	return zinc.NewReader(r).Read()
}

func encode(format string, v kind.Kind, indent bool) ([]byte, error) {
	if format == "zinc" {
		out, err := zinc.Marshal(v)
		if err != nil {
			return nil, err
		}
		if !bytes.HasSuffix(out, []byte("\n")) {
			out = append(out, '\n')
		}
		return out, nil
	}
	var opts []hsjson.Option
	if indent {
		opts = append(opts, hsjson.WithIndent("", "  "))
	}
	out, err := hsjson.Marshal(v, opts...)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func describe(v kind.Kind) string {
	if g, ok := v.(kind.Grid); ok {
		return fmt.Sprintf("grid %dx%d", g.NumCols(), g.NumRows())
	}
	return fmt.Sprintf("%T", v)
}
