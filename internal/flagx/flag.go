// Package flagx filters command-line arguments so that each component can
// parse only the flags it owns.
package flagx

import (
	"flag"
	"io"
	"slices"
	"strings"
)

// FilterArgs keeps the arguments naming one of allowed, together with their
// values. Flag names are given without dashes; "-c", "--c", "-c=v" and
// "--c=v" all match "c". A separate value is taken only when the next
// argument does not start with a dash. Scanning stops at "--".
func FilterArgs(args []string, allowed ...string) []string {
	owned := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		owned[strings.TrimLeft(name, "-")] = true
	}

	out := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !owned[name] {
			continue
		}
		out = append(out, arg)

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// Parse runs fs over the arguments that name one of its flags, ignoring the
// rest. Boolean flags must use the -name=value form to take a value.
func Parse(fs *flag.FlagSet, args []string) error {
	var names, bools []string
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			bools = append(bools, f.Name)
			return
		}
		names = append(names, f.Name)
	})

	filtered := FilterArgs(args, names...)
	for _, arg := range args {
		if arg == "--" {
			break
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if strings.HasPrefix(arg, "-") && slices.Contains(bools, name) {
			filtered = append(filtered, arg)
		}
	}
	return fs.Parse(filtered)
}

// JsonConfigFlags returns the config file path given by -c or -config in
// args, or "" when neither is present.
func JsonConfigFlags(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = Parse(fs, args)

	return config
}
