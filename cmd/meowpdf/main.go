package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	apppkg "github.com/kk-code-lab/meowpdf/internal/app"
	"github.com/kk-code-lab/meowpdf/internal/config"
	"github.com/kk-code-lab/meowpdf/internal/document"
	"github.com/kk-code-lab/meowpdf/internal/logging"
	"github.com/kk-code-lab/meowpdf/internal/term"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// forceGraphicsEnv skips the graphics probe for terminals that support the
// protocol but do not answer queries, such as some multiplexers.
const forceGraphicsEnv = "MEOWPDF_FORCE_GRAPHICS"

func printHelp() {
	fmt.Print(`meowpdf - PDF viewer for terminals with kitty graphics

USAGE:
    meowpdf [OPTIONS] <file.pdf>

OPTIONS:
    -h, --help            Show this help message and exit
    -v, --version         Show the version and exit
        --print-config    Print the default configuration and exit

ENVIRONMENT:
    MEOWPDF_CONFIG          Configuration file (default: <config dir>/meowpdf/config.toml)
    MEOWPDF_LOG             Log file; overrides [log] file
    MEOWPDF_FORCE_GRAPHICS  Skip the graphics support check
`)
}

func main() {
	// Set UTF-8 as fallback encoding so file names display correctly
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	if len(os.Args) != 2 {
		printHelp()
		os.Exit(2)
	}
	switch arg := os.Args[1]; arg {
	case "-h", "--help":
		printHelp()
		os.Exit(0)
	case "-v", "--version":
		fmt.Println("meowpdf", version)
		os.Exit(0)
	case "--print-config":
		fmt.Print(config.DefaultTOML())
		os.Exit(0)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "meowpdf: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfgPath, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logCloser.Close()
	}()
	logger.Info("starting", "version", version, "file", path, "config", cfgPath)
	for _, binding := range cfg.Dropped {
		logger.Warn("default binding dropped, keys already bound in config", "binding", binding)
	}

	doc, err := document.Open(path, logger.With("component", "document"))
	if err != nil {
		return err
	}

	tty, err := term.OpenTTY()
	if err != nil {
		_ = doc.Close()
		return err
	}
	defer tty.Close()

	if os.Getenv(forceGraphicsEnv) == "" {
		if err := term.Probe(tty, term.ProbeTimeout); err != nil {
			_ = doc.Close()
			return err
		}
	}

	app, err := apppkg.NewApplication(apppkg.Options{
		Config:   cfg,
		Document: doc,
		Graphics: tty,
		CellSize: func() (float64, float64) { return term.CellSize(tty) },
		Reopen: func(path string) (document.Document, error) {
			pdf, err := document.Open(path, logger.With("component", "document"))
			if err != nil {
				return nil, err
			}
			return pdf, nil
		},
		Logger: logger,
	})
	if err != nil {
		_ = doc.Close()
		return err
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error("viewer stopped", "error", err)
		return err
	}
	logger.Info("exiting")
	return nil
}
