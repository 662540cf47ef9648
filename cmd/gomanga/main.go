/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gomanga/internal/config"
	"gomanga/internal/crash"
	"gomanga/internal/domain"
	"gomanga/internal/editor"
	"gomanga/internal/export"
	"gomanga/internal/gesture"
	applog "gomanga/internal/log"
	"gomanga/internal/script"
	"gomanga/internal/storage"
	"gomanga/internal/telemetry"
	"gomanga/internal/tui"
	"gomanga/internal/ui"
	"gomanga/internal/version"
)

// errUsage marks argument errors; main prints usage and exits with 2.
var errUsage = errors.New("usage")

func usage() {
	fmt.Println("GoManga - manga script editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gomanga version|-v|--version                  Show version")
	fmt.Println("  gomanga new <file> <name>                     Create a project file")
	fmt.Println("  gomanga show <file>                           Print the script of a project")
	fmt.Println("  gomanga export <file> txt|pdf|png|all <out>   Export (out is a file for txt/pdf, a dir for png/all)")
	fmt.Println("  gomanga import <script.txt> <file> <name>     Create a project from a plain-text script")
	fmt.Println("  gomanga replay <events.json>                  Run recorded key events through the gesture detector")
	fmt.Println("  gomanga history <file> [n]                    List saved revisions next to a project")
	fmt.Println("  gomanga tui <file>                            Terminal editor")
	fmt.Println("  gomanga ui [<file>]                           Desktop editor (build with -tags fyne)")
}

func main() {
	cfg, cfgErr := config.Load()
	logOpts := cfg.Logging.LogOptions()
	if len(os.Args) > 1 && os.Args[1] == "tui" {
		logOpts.Quiet = true
	}
	applog.Init(logOpts)
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	telemetry.SetDefault(telemetry.New(telemetryConfig(cfg)))
	defer telemetry.Default().Close()
	defer crash.Recover(nil)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	err := run(cfg, args[1], args[2:])
	if errors.Is(err, errUsage) {
		fmt.Println(err)
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	telemetry.Default().Flush(ctx)
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	tc := telemetry.FromEnv()
	tc.OptIn = cfg.General.TelemetryOptIn
	if cfg.General.TelemetryURL != "" {
		tc.EventsURL = cfg.General.TelemetryURL
	}
	return tc
}

func run(cfg config.AppConfig, cmd string, args []string) error {
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("GoManga")
		fmt.Println(version.String())
		return nil
	case "new":
		if len(args) < 2 {
			return fmt.Errorf("new requires <file> and <name>: %w", errUsage)
		}
		return newProject(args[0], args[1])
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("show requires <file>: %w", errUsage)
		}
		p, err := storage.LoadProject(args[0])
		if err != nil {
			return err
		}
		fmt.Print(script.Export(p))
		return nil
	case "export":
		if len(args) < 3 {
			return fmt.Errorf("export requires <file> <format> <out>: %w", errUsage)
		}
		return exportProject(args[0], args[1], args[2])
	case "import":
		if len(args) < 3 {
			return fmt.Errorf("import requires <script.txt> <file> <name>: %w", errUsage)
		}
		return importScript(args[0], args[1], args[2])
	case "replay":
		if len(args) < 1 {
			return fmt.Errorf("replay requires <events.json>: %w", errUsage)
		}
		return replay(args[0], cfg.Editor.TapWindow())
	case "history":
		if len(args) < 1 {
			return fmt.Errorf("history requires <file>: %w", errUsage)
		}
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				return fmt.Errorf("history count %q: %w", args[1], errUsage)
			}
			n = v
		}
		return listHistory(args[0], n)
	case "tui":
		if len(args) < 1 {
			return fmt.Errorf("tui requires <file>: %w", errUsage)
		}
		return runTUI(args[0], cfg)
	case "ui":
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return ui.Run(path, ui.Options{Window: cfg.Editor.TapWindow(), HistoryKeep: cfg.Editor.HistoryKeep})
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func newProject(path, name string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	abs, _ := filepath.Abs(path)
	applog.WithComponent("cli").Info("new project", slog.String("path", abs), slog.String("name", name))
	if _, err := storage.SaveProject(abs, domain.NewProject(name)); err != nil {
		return err
	}
	fmt.Println("Created project at", abs)
	return nil
}

func exportProject(path, format, out string) error {
	p, err := storage.LoadProject(path)
	if err != nil {
		return err
	}
	switch format {
	case export.FormatText:
		err = export.Text(p, out)
	case export.FormatPDF:
		err = export.ScriptPDF(p, out, export.PDFOptions{})
	case export.FormatPNG, "all":
		opt := export.BatchOptions{OutDir: out}
		if format == export.FormatPNG {
			opt.Formats = []string{export.FormatPNG}
		}
		var written []string
		if written, err = export.Batch(p, opt); err == nil {
			for _, w := range written {
				fmt.Println(w)
			}
		}
		return err
	default:
		return fmt.Errorf("unknown export format %q: %w", format, errUsage)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func importScript(src, path, name string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	sc, errs := script.Parse(string(b))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("%s:%s\n", src, e.Error())
		}
		return fmt.Errorf("%d errors in %s", len(errs), src)
	}
	p := sc.Project(name)
	if _, err := storage.SaveProject(path, p); err != nil {
		return err
	}
	fmt.Printf("Imported %d panels, %d items into %s\n", len(p.Panels), p.ContentCount(), path)
	return nil
}

func replay(path string, window time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	events, err := gesture.ReadEvents(f)
	if err != nil {
		return err
	}
	for _, em := range gesture.Replay(events, window) {
		fmt.Printf("%6dms  %s\n", em.At.Milliseconds(), em.Command)
	}
	return nil
}

func listHistory(path string, n int) error {
	h, err := storage.OpenHistory(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer h.Close()
	revs, err := h.List(context.Background(), n)
	if err != nil {
		return err
	}
	for _, r := range revs {
		fmt.Printf("%5d  %s  %-24s panels=%d items=%d\n", r.ID, r.TS.Local().Format(time.DateTime), r.Name, r.Panels, r.Items)
	}
	return nil
}

func runTUI(path string, cfg config.AppConfig) error {
	s, err := editor.Open(path)
	if err != nil {
		return err
	}
	defer crash.Recover(s)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return tui.Run(ctx, path, tui.RunOptions{
		Window:        cfg.Editor.TapWindow(),
		HistoryKeep:   cfg.Editor.HistoryKeep,
		WatchDebounce: cfg.Editor.WatchDebounce(),
		Session:       s,
	})
}
