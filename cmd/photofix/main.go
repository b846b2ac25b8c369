// BYZRA ⸻ cmd/photofix/main.go
// CLI entrypoint and command routing

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"photofix/internal/analyse"
	"photofix/internal/config"
	"photofix/internal/daemon"
	"photofix/internal/fix"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

const version = "1.0.0"

func main() {
	util.LoadTheme()

	if len(os.Args) < 2 {
		printHeader()
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "fix":
		err = handleFixCommand(args)
	case "scan":
		err = handleScanCommand(args)
	case "inspect":
		err = handleInspectCommand(args)
	case "watch":
		err = handleWatchCommand(args)
	case "init":
		err = handleInitCommand(args)
	case "help", "-h", "--help":
		util.Wiper()
		printHeader()
		printUsage()
	case "version", "--version":
		printVersion()
	default:
		fmt.Println(util.LBL.Render("[!] Unknown command: " + command))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Println(util.ErrorSymbol() + " " + util.LBL.Render(err.Error()))
		}
		os.Exit(1)
	}
}

// flags shared by commands that load the config
type commonFlags struct {
	configPath string
	input      string
	output     string
	exiftool   string
	workers    int
	logLevel   string
	quiet      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "config file (default: search "+config.FileName+")")
	fs.StringVarP(&c.input, "input", "i", "", "takeout directory to scan")
	fs.StringVarP(&c.output, "output", "o", "", "directory fixed copies are written to")
	fs.StringVar(&c.exiftool, "exiftool", "", "exiftool binary")
	fs.IntVarP(&c.workers, "workers", "w", 0, "parallel sidecar lookups")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warning or error")
	fs.BoolVarP(&c.quiet, "quiet", "q", false, "no progress output")
}

// config file first, then flags that were set explicitly
func (c *commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, used, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if used != "" && !c.quiet {
		fmt.Println(util.SUB.Render("config: " + used))
	}

	if fs.Changed("input") {
		cfg.Paths.Input = c.input
	}
	if fs.Changed("output") {
		cfg.Paths.Output = c.output
	}
	if fs.Changed("exiftool") {
		cfg.Paths.ExifTool = c.exiftool
	}
	if fs.Changed("workers") {
		cfg.Run.Workers = c.workers
	}
	if fs.Changed("log-level") {
		cfg.Run.LogLevel = c.logLevel
	}
	util.Quiet = c.quiet
	return cfg, nil
}

func openLogger(path, level string) (*util.Logger, error) {
	lvl, err := util.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	logger, err := util.NewLogger(path, lvl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func handleFixCommand(args []string) error {
	fs := flag.NewFlagSet("fix", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	dryRun := fs.Bool("dry-run", false, "write the arguments file without running exiftool")
	verify := fs.Bool("verify", false, "read back dates and GPS from the written files")
	zeroGPS := fs.Bool("write-zero-gps", false, "write GPS tags even when the sidecar has 0,0,0")
	profile := fs.String("profile", "", "profile.lua with extra tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		cfg.Paths.Input = fs.Arg(0)
	}
	if fs.Changed("verify") {
		cfg.Run.Verify = *verify
	}
	if fs.Changed("write-zero-gps") {
		cfg.Run.WriteZeroGPS = *zeroGPS
	}
	if fs.Changed("profile") {
		cfg.Paths.Profile = *profile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := openLogger(cfg.Paths.RunLog, cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	exiftool := util.NewExifTool(cfg.Paths.ExifTool)
	if !*dryRun {
		if err := exiftool.Available(); err != nil {
			logger.Error(err.Error())
			return err
		}
	}

	opts := &fix.Options{DryRun: *dryRun}
	if cfg.Run.Verify && !*dryRun {
		reader, err := util.NewExifToolReader(cfg.Paths.ExifTool)
		if err != nil {
			fmt.Println(util.WarningSymbol() + " " + util.NSH.Render("non-JPEG outputs will not be verified: "+err.Error()))
		} else {
			defer reader.Close()
			opts.Reader = reader
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(util.NSH.Render("[~] Fixing: " + cfg.Paths.Input))
	fmt.Println(util.Divider)

	result, err := fix.Run(ctx, cfg, logger, exiftool, opts)
	if err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	fmt.Println(util.Divider)
	fmt.Print(fix.FormatFixResult(result))
	fmt.Println(util.SUB.Render("run " + result.RunID + " | log: " + cfg.Paths.RunLog))
	return nil
}

func handleScanCommand(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	limit := fs.Int("limit", 20, "unresolved files to list (0 = all)")
	dump := fs.String("dump", "", "write the associations to this TOML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		cfg.Paths.Input = fs.Arg(0)
	}
	if err := util.ValidateDir(cfg.Paths.Input); err != nil {
		return fmt.Errorf("invalid input directory: %w", err)
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	records, err := util.SpinWhile("[~] Scanning media files", func() ([]sidecar.MediaRecord, error) {
		return analyse.ScanMedia(cfg.Paths.Input, table)
	})
	if err != nil {
		return err
	}
	fmt.Println(util.NSH.Render(fmt.Sprintf("[i] %d media files", len(records))))

	ctx, cancel := signalContext()
	defer cancel()

	assoc, err := sidecar.BuildAssociations(ctx, sidecar.NewResolver(nil), records, sidecar.AssociateOptions{
		Workers: cfg.Run.Workers,
		OnMatch: func(_ sidecar.SidecarMatch, c sidecar.Counts) {
			util.Progress("Found %d JSON files | %d not found", c.Resolved, c.Unresolved)
		},
	})
	util.ProgressDone()
	if err != nil {
		return err
	}

	fmt.Println(analyse.RenderCounts(assoc.Counts()))
	fmt.Print(analyse.RenderUnresolved(assoc, *limit))

	if *dump != "" {
		if err := analyse.WriteAssociations(*dump, assoc, ""); err != nil {
			return err
		}
		fmt.Println(util.SuccessSymbol() + " " + util.NSH.Render("associations written to "+*dump))
	}
	return nil
}

func handleInspectCommand(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "config file")
	tags := fs.Bool("tags", false, "also read the embedded date and GPS tags with exiftool")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Println(util.SUB.Render("Usage: photofix inspect <media file>"))
		return fmt.Errorf("no file specified for inspection")
	}

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	var reader util.TagReader
	if *tags {
		r, err := util.NewExifToolReader(cfg.Paths.ExifTool)
		if err != nil {
			return err
		}
		defer r.Close()
		reader = r
	}

	for _, path := range fs.Args() {
		report, err := util.SpinWhile("[~] Inspecting "+filepath.Base(path), func() (*analyse.InspectReport, error) {
			return analyse.Inspect(path, nil, table, reader)
		})
		if err != nil {
			return fmt.Errorf("inspection failed: %w", err)
		}
		fmt.Println(analyse.GenerateReport(report))
	}
	return nil
}

func handleWatchCommand(args []string) error {
	if len(args) < 1 {
		fmt.Println(util.SUB.Render("Usage: photofix watch [on|off|status]"))
		return fmt.Errorf("watch mode requires a subcommand")
	}

	pidFile := daemon.PIDFile(config.StateDir())

	switch args[0] {
	case "on", "start":
		return watchOn(args[1:], pidFile)

	case "off", "stop":
		pid, err := daemon.Signal(pidFile)
		if err != nil {
			fmt.Println(util.NSH.Render("[!] " + err.Error()))
			return nil
		}
		fmt.Println(util.NSH.Render(fmt.Sprintf("[✓] Stop requested (PID %d)", pid)))
		return nil

	case "status":
		if pid := daemon.RunningPID(pidFile); pid != 0 {
			fmt.Println(util.NSH.Render(fmt.Sprintf("[...] Watcher is running (PID %d)", pid)))
		} else {
			fmt.Println(util.NSH.Render("[...] Watcher is not running"))
		}
		return nil

	default:
		fmt.Println(util.SUB.Render("Usage: photofix watch [on|off|status]"))
		return fmt.Errorf("unknown watch command: %s", args[0])
	}
}

func watchOn(args []string, pidFile string) error {
	fs := flag.NewFlagSet("watch on", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	paths := fs.StringSlice("path", nil, "directory to watch (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if pid := daemon.RunningPID(pidFile); pid != 0 {
		fmt.Println(util.NSH.Render(fmt.Sprintf("[!] Watcher is already running (PID %d)", pid)))
		return nil
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	cfg.Watch.Paths = append(cfg.Watch.Paths, *paths...)
	cfg.Watch.Paths = append(cfg.Watch.Paths, fs.Args()...)
	if cfg.Paths.Input == "" && len(cfg.Watch.Paths) > 0 {
		cfg.Paths.Input = cfg.Watch.Paths[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := openLogger(filepath.Join(config.StateDir(), "logs", "photofix-watch.log"), cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	exiftool := util.NewExifTool(cfg.Paths.ExifTool)
	if err := exiftool.Available(); err != nil {
		return err
	}

	d, err := daemon.NewDaemon(cfg, logger, exiftool)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// per-file runs print nothing; the log has the details
	util.Quiet = true
	if err := d.Start(ctx); err != nil {
		return err
	}
	if err := daemon.WritePID(pidFile, os.Getpid()); err != nil {
		fmt.Println(util.LBL.Render("[!] " + err.Error()))
	}
	defer os.Remove(pidFile)

	fmt.Println(util.NSH.Render("[✓] Watching: "))
	for _, p := range cfg.Watch.Paths {
		fmt.Println("  " + util.Ornament + " " + p)
	}
	fmt.Println(util.SUB.Render("stop with `photofix watch off` or Ctrl+C"))

	<-ctx.Done()

	status := d.Status()
	if err := d.Stop(); err != nil {
		return err
	}
	fmt.Println(util.NSH.Render(fmt.Sprintf("[✓] Watcher stopped: %d fixed, %d pending, %d errors",
		status.ProcessedFiles, status.Pending, status.ErrorCount)))
	return nil
}

func handleInitCommand(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", filepath.Join(config.StateDir(), "config", config.FileName), "where to write the config")
	input := fs.StringP("input", "i", "", "takeout directory to record")
	force := fs.Bool("force", false, "overwrite an existing config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	cfg := config.Default()
	cfg.Paths.Input = *input
	if err := config.Save(cfg, *path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(util.SuccessSymbol() + " " + util.NSH.Render("config written to "+*path))
	return nil
}

func printHeader() {
	fmt.Printf("\n%s %s\n\n",
		util.LBL.Render("PHOTOFIX"),
		util.SHE.Render("Google Takeout metadata repair"))
}

func printUsage() {
	fmt.Println(util.LBL.Render("USAGE"))
	fmt.Println("  photofix <command> [options]")
	fmt.Println("")
	fmt.Println(util.LBL.Render("COMMANDS"))
	fmt.Println("  fix [dir]                  write sidecar dates and GPS into fixed copies")
	fmt.Println("  scan [dir]                 match media to sidecars without writing")
	fmt.Println("  inspect <file>...          show candidates, sidecar and extracted record")
	fmt.Println("  watch <on|off|status>      fix files as they land in watched directories")
	fmt.Println("  init                       write a default config file")
	fmt.Println("  help                       show this help information")
	fmt.Println("  version                    show version information")
	fmt.Println("")
	fmt.Println(util.LBL.Render("COMMON OPTIONS"))
	fmt.Println("  -c, --config <file>        config file")
	fmt.Println("  -i, --input <dir>          takeout directory")
	fmt.Println("  -o, --output <dir>         output directory")
	fmt.Println("      --exiftool <path>      exiftool binary")
	fmt.Println("  -w, --workers <n>          parallel sidecar lookups")
	fmt.Println("      --log-level <level>    debug, info, warning, error")
	fmt.Println("  -q, --quiet                no progress output")
	fmt.Println("")
	fmt.Println(util.LBL.Render("FIX OPTIONS"))
	fmt.Println("      --dry-run              write the arguments file only")
	fmt.Println("      --verify               read back the written tags")
	fmt.Println("      --write-zero-gps       keep 0,0 coordinates")
	fmt.Println("      --profile <file>       profile.lua with extra tags")
}

func printVersion() {
	fmt.Println(util.LBL.Render("PHOTOFIX v" + version))
	fmt.Println(util.NSH.Render("→ restores capture dates and locations from Google Takeout sidecars"))
}
