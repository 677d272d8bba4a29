// Command blocktpl is a demo CLI driving the template engine end to
// end: it loads one Source, assigns key=value pairs at template scope,
// renders it, and prints the result. Grounded on teacher's
// Engine.Load()/Engine.Templates() directory walk (engine/engine.go),
// now argument-driven instead of a directory pre-compile pass.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/codingersid/blocktemplate/plugin"
	"github.com/codingersid/blocktemplate/template"
	"github.com/codingersid/blocktemplate/value"
)

func main() {
	var (
		assigns  []string
		logLevel string
	)

	pflag.StringArrayVarP(&assigns, "assign", "a", nil, "template-scope binding as name=value (repeatable)")
	pflag.StringVar(&logLevel, "log-level", "info", "zap log level: debug|info|warn|error")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: blocktpl [--assign name=value ...] <template-file>")
		os.Exit(2)
	}
	path := pflag.Arg(0)

	logger := buildLogger(logLevel)
	defer logger.Sync()

	eng := template.New(
		template.WithResolver(plugin.NewDefaultRegistry()),
		template.WithLogger(logger),
	)

	for _, kv := range assigns {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			logger.Sugar().Warnw("ignoring malformed --assign, want name=value", "arg", kv)
			continue
		}
		eng.Assign(name, value.StringValue(val))
	}

	src, err := eng.LoadFile(path)
	if err != nil {
		logger.Sugar().Errorw("failed to load template", "path", path, "error", err)
		os.Exit(1)
	}

	out, err := eng.RootEntity(src).Render()
	if err != nil {
		logger.Sugar().Errorw("render failed", "path", path, "error", err)
		os.Exit(1)
	}

	fmt.Print(out)
}

func buildLogger(level string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
