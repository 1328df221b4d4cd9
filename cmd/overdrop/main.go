package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/redhatinsights/overdrop"
	"github.com/redhatinsights/overdrop/internal/conf"
	"github.com/redhatinsights/overdrop/internal/l10n"
)

// Version is set during the build.
var Version = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", l10n.T("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "overdrop",
		Version: Version,
		Usage:   l10n.T("Resolve drop-in configuration fragments across layered directories"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: l10n.T("set the logging level (DEBUG, INFO, WARN, ERROR)"),
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: l10n.T("resolve the effective set of fragments and print it"),
				Flags: append(scanFlags(), &cli.StringFlag{
					Name:  "format",
					Usage: l10n.T("output format (plain, json)"),
					Value: "plain",
				}),
				Action: runScan,
			},
			{
				Name:   "merge",
				Usage:  l10n.T("resolve fragments and merge them as one TOML document"),
				Flags:  scanFlags(),
				Action: runMerge,
			},
		},
	}
}

// setupLogging installs the slog handler at the level from the tool
// configuration, overridden by the --log-level flag.
func setupLogging(c *cli.Context) error {
	level := conf.Configuration.LogLevel
	if c.IsSet("log-level") {
		switch strings.ToUpper(c.String("log-level")) {
		case "DEBUG":
			level = slog.LevelDebug
		case "INFO":
			level = slog.LevelInfo
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		default:
			return fmt.Errorf("unknown log level: %s", c.String("log-level"))
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "base-dir",
			Aliases: []string{"b"},
			Usage:   l10n.T("base directory to scan, lowest priority first (repeatable)"),
		},
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   l10n.T("relative sub-path appended to every base directory"),
		},
		&cli.StringSliceFlag{
			Name:    "extension",
			Aliases: []string{"x"},
			Usage:   l10n.T("allowed filename extension, without the dot (repeatable; none = allow all)"),
		},
		&cli.BoolFlag{
			Name:  "ignore-dotfiles",
			Usage: l10n.T("skip files with a name prefixed with '.'"),
		},
	}
}

// scannerFromContext builds a FragmentScanner from the command flags,
// falling back to the tool's own configuration for unset flags.
func scannerFromContext(c *cli.Context) *overdrop.FragmentScanner {
	baseDirs := c.StringSlice("base-dir")
	if len(baseDirs) == 0 {
		baseDirs = conf.Configuration.BaseDirs
	}
	sharedPath := conf.Configuration.SharedPath
	if c.IsSet("path") {
		sharedPath = c.String("path")
	}
	extensions := conf.Configuration.Extensions
	if c.IsSet("extension") {
		extensions = c.StringSlice("extension")
	}
	ignoreDotfiles := conf.Configuration.IgnoreDotfiles
	if c.IsSet("ignore-dotfiles") {
		ignoreDotfiles = c.Bool("ignore-dotfiles")
	}
	return overdrop.NewFragmentScanner(baseDirs, sharedPath, ignoreDotfiles, extensions)
}

func runScan(c *cli.Context) error {
	fragments := scannerFromContext(c).Scan()

	switch c.String("format") {
	case "json":
		resolved := make(map[string]string, len(fragments))
		for _, fragment := range fragments {
			resolved[fragment.Name] = fragment.Path
		}
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resolved)
	case "plain":
		for _, fragment := range fragments {
			fmt.Fprintf(c.App.Writer, "%s\t%s\n", fragment.Name, fragment.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", c.String("format"))
	}
}

func runMerge(c *cli.Context) error {
	fragments := scannerFromContext(c).Scan()

	var spin *spinner.Spinner
	if term.IsTerminal(int(os.Stdout.Fd())) {
		spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond)
		spin.Suffix = " " + l10n.T("Merging configuration fragments...")
		spin.Start()
	}

	merged, err := overdrop.Merge(fragments, map[string]interface{}{},
		func(acc map[string]interface{}, name string, r io.Reader) (map[string]interface{}, error) {
			var doc map[string]interface{}
			if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
				return acc, err
			}
			// Top-level keys from later fragments win.
			for key, value := range doc {
				acc[key] = value
			}
			return acc, nil
		})

	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("cannot merge configuration fragments: %w", err)
	}

	return toml.NewEncoder(c.App.Writer).Encode(merged)
}
