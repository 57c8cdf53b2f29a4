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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gridboard/internal/backend"
	"gridboard/internal/config"
	"gridboard/internal/crash"
	"gridboard/internal/domain"
	"gridboard/internal/export"
	applog "gridboard/internal/log"
	"gridboard/internal/storage"
	"gridboard/internal/telemetry"
	"gridboard/internal/templatepack"
	"gridboard/internal/templates"
	"gridboard/internal/ui"
	"gridboard/internal/version"
)

func usage() {
	fmt.Fprintln(os.Stderr, "GridBoard — dashboard layout studio")
	fmt.Fprintf(os.Stderr, "Version: %s\n", version.String())
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  gridboard version|-v|--version                       Show version")
	fmt.Fprintln(os.Stderr, "  gridboard init <dir> [name]                          Create a new project at <dir>")
	fmt.Fprintln(os.Stderr, "  gridboard info <dir>                                 Print a project summary")
	fmt.Fprintln(os.Stderr, "  gridboard add-board <dir> <name>                     Add an empty board to the project")
	fmt.Fprintln(os.Stderr, "  gridboard template list [<dir>]                      List available templates")
	fmt.Fprintln(os.Stderr, "  gridboard template apply <dir> <board> <template>    Instantiate a template onto a board")
	fmt.Fprintln(os.Stderr, "  gridboard export <dir> [--preset screen|print] [--out <dir>]")
	fmt.Fprintln(os.Stderr, "                                                       Export layout sheets")
	fmt.Fprintln(os.Stderr, "  gridboard export-doc <dir> <board> <file>            Write one board as a JSON document")
	fmt.Fprintln(os.Stderr, "  gridboard import-doc <dir> <file>                    Import a board document (fresh IDs)")
	fmt.Fprintln(os.Stderr, "  gridboard search <dir> <query>                       Full-text search over the project index")
	fmt.Fprintln(os.Stderr, "  gridboard pack export <dir> <zip>                    Zip the project's template sheets")
	fmt.Fprintln(os.Stderr, "  gridboard pack install <dir> <zip>                   Install sheets from a template pack")
	fmt.Fprintln(os.Stderr, "  gridboard login <token>                              Store the share backend token in the OS keyring")
	fmt.Fprintln(os.Stderr, "  gridboard boards                                     List boards on the share backend")
	fmt.Fprintln(os.Stderr, "  gridboard pull <dir> <stable-id>                     Replace the local project with the server document")
	fmt.Fprintln(os.Stderr, "  gridboard push <dir> <stable-id>                     Upload the local project as the board's new version")
	fmt.Fprintln(os.Stderr, "  gridboard serve                                      Run the share backend server")
	fmt.Fprintln(os.Stderr, "  gridboard ui [<dir>]                                 Launch the desktop UI (-tags fyne)")
}

func fail(l *slog.Logger, what string, err error) {
	l.Error(what, slog.Any("err", err))
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func usageExit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	usage()
	os.Exit(2)
}

func remoteClient(l *slog.Logger) *backend.Client {
	cfg, token, err := config.Load()
	if err != nil {
		fail(l, "config load failed", err)
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "Warning: no backend token stored; run `gridboard login <token>` first")
	}
	return backend.NewClientFromConfig(cfg, token)
}

func openAt(l *slog.Logger, dir string) *storage.ProjectHandle {
	abs, _ := filepath.Abs(dir)
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())

	case "init":
		if len(args) < 3 {
			usageExit("init requires <dir>")
		}
		dir := args[2]
		abs, _ := filepath.Abs(dir)
		name := filepath.Base(abs)
		if len(args) >= 4 {
			name = args[3]
		}
		l.Info("init project", slog.String("root", abs), slog.String("name", name))
		p := domain.Project{Name: name, Dashboards: []domain.Dashboard{}}
		h, err := storage.InitProject(abs, p)
		if err != nil {
			fail(l, "init failed", err)
		}
		ph = h
		fmt.Println("Created project at", abs)

	case "info":
		if len(args) < 3 {
			usageExit("info requires <dir>")
		}
		h := openAt(l, args[2])
		ph = h
		fmt.Printf("Project: %s\n", h.Project.Name)
		fmt.Println("Root:", h.Root)
		fmt.Printf("Boards: %d\n", len(h.Project.Dashboards))
		for _, d := range h.Project.Dashboards {
			fmt.Printf("  %-36s  %-24s  %d widget(s)\n", d.ID, d.Name, len(d.Widgets))
		}

	case "add-board":
		if len(args) < 4 {
			usageExit("add-board requires <dir> and <name>")
		}
		h := openAt(l, args[2])
		ph = h
		d, err := storage.AddDashboard(h, args[3], "")
		if err != nil {
			fail(l, "add-board failed", err)
		}
		if err := storage.Save(h); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Added board %s (%s)\n", d.Name, d.ID)

	case "template":
		if len(args) < 3 {
			usageExit("template requires a subcommand: list | apply")
		}
		switch args[2] {
		case "list":
			cat := templates.NewCatalog()
			if len(args) >= 4 {
				h := openAt(l, args[3])
				ph = h
				sheets, diags, err := templates.LoadProjectSheets(h.Root)
				if err != nil {
					fail(l, "load sheets failed", err)
				}
				for name, errs := range diags {
					for _, e := range errs {
						fmt.Fprintf(os.Stderr, "warning: %s: %s\n", name, e.String())
					}
				}
				for _, t := range sheets {
					cat.Add(t)
				}
			}
			for _, name := range cat.Names() {
				t, _ := cat.Lookup(name)
				fmt.Printf("  %-24s  %d widget(s)  %s\n", name, len(t.Widgets), t.Description)
			}
		case "apply":
			if len(args) < 6 {
				usageExit("template apply requires <dir> <board> <template>")
			}
			h := openAt(l, args[3])
			ph = h
			d := storage.FindDashboard(h, args[4])
			if d == nil {
				fail(l, "board lookup failed", fmt.Errorf("no board named %q", args[4]))
			}
			cat := templates.NewCatalog()
			if sheets, _, err := templates.LoadProjectSheets(h.Root); err == nil {
				for _, t := range sheets {
					cat.Add(t)
				}
			}
			if !cat.Instantiate(args[5], d) {
				fail(l, "template apply failed", fmt.Errorf("unknown template %q", args[5]))
			}
			if err := storage.Save(h); err != nil {
				fail(l, "save failed", err)
			}
			telemetry.Event("template_instantiate", map[string]any{"template": args[5]})
			fmt.Printf("Applied template %q to board %s\n", args[5], d.Name)
		default:
			usageExit("unknown template subcommand: " + args[2])
		}

	case "export":
		if len(args) < 3 {
			usageExit("export requires <dir>")
		}
		h := openAt(l, args[2])
		ph = h
		preset := export.PresetScreen
		outDir := ""
		rest := args[3:]
		for i := 0; i < len(rest); i++ {
			switch rest[i] {
			case "--preset":
				if i+1 >= len(rest) {
					usageExit("--preset requires a value")
				}
				i++
				switch strings.ToLower(rest[i]) {
				case string(export.PresetScreen):
					preset = export.PresetScreen
				case string(export.PresetPrint):
					preset = export.PresetPrint
				default:
					usageExit("unknown preset: " + rest[i])
				}
			case "--out":
				if i+1 >= len(rest) {
					usageExit("--out requires a value")
				}
				i++
				outDir = rest[i]
			default:
				usageExit("unknown export flag: " + rest[i])
			}
		}
		start := time.Now()
		if err := export.BatchExport(h, export.BatchOptions{Preset: preset, OutDir: outDir}); err != nil {
			fail(l, "export failed", err)
		}
		telemetry.Event("board_export", map[string]any{"preset": string(preset)})
		l.Info("export done", slog.String("preset", string(preset)), slog.Duration("took", time.Since(start)))
		fmt.Printf("Exported %s preset for %d board(s)\n", preset, len(h.Project.Dashboards))

	case "export-doc":
		if len(args) < 5 {
			usageExit("export-doc requires <dir> <board> <file>")
		}
		h := openAt(l, args[2])
		ph = h
		d := storage.FindDashboard(h, args[3])
		if d == nil {
			fail(l, "board lookup failed", fmt.Errorf("no board named %q", args[3]))
		}
		if err := storage.WriteDocumentFile(d, args[4]); err != nil {
			fail(l, "export-doc failed", err)
		}
		fmt.Println("Wrote", args[4])

	case "import-doc":
		if len(args) < 4 {
			usageExit("import-doc requires <dir> <file>")
		}
		h := openAt(l, args[2])
		ph = h
		d, err := storage.ReadDocumentFile(args[3])
		if err != nil {
			fail(l, "import-doc failed", err)
		}
		h.Project.Dashboards = append(h.Project.Dashboards, *d)
		if err := storage.Save(h); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Imported board %s (%s)\n", d.Name, d.ID)

	case "search":
		if len(args) < 4 {
			usageExit("search requires <dir> and <query>")
		}
		h := openAt(l, args[2])
		ph = h
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := storage.UpdateIndex(ctx, h.Root, h.Project); err != nil {
			l.Warn("index refresh failed", slog.Any("err", err))
		}
		res, err := storage.Search(ctx, h.Root, storage.SearchQuery{Text: strings.Join(args[3:], " ")})
		if err != nil {
			fail(l, "search failed", err)
		}
		if len(res) == 0 {
			fmt.Println("No matches.")
			return
		}
		for _, r := range res {
			line := fmt.Sprintf("%-12s %s", r.DocType, r.Path)
			if r.Title != "" {
				line += "  " + r.Title
			}
			if r.Snippet != "" {
				line += "  — " + r.Snippet
			}
			fmt.Println(line)
		}

	case "pack":
		if len(args) < 5 {
			usageExit("pack requires a subcommand: export <dir> <zip> | install <dir> <zip>")
		}
		dir, zipPath := args[3], args[4]
		abs, _ := filepath.Abs(dir)
		switch args[2] {
		case "export":
			if err := templatepack.ExportProjectTemplates(abs, zipPath); err != nil {
				fail(l, "pack export failed", err)
			}
			fmt.Println("Exported template pack to", zipPath)
		case "install":
			n, err := templatepack.InstallPack(abs, zipPath)
			if err != nil {
				fail(l, "pack install failed", err)
			}
			fmt.Printf("Installed %d sheet(s)\n", n)
		default:
			usageExit("unknown pack subcommand: " + args[2])
		}

	case "login":
		if len(args) < 3 {
			usageExit("login requires <token>")
		}
		cfg, _, err := config.Load()
		if err != nil {
			fail(l, "config load failed", err)
		}
		if err := config.Save(cfg, args[2]); err != nil {
			fail(l, "token store failed", err)
		}
		fmt.Println("Token stored.")

	case "boards":
		cli := remoteClient(l)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		boards, err := cli.ListBoards(ctx)
		if err != nil {
			fail(l, "board listing failed", err)
		}
		if len(boards) == 0 {
			fmt.Println("No boards on the server.")
			return
		}
		for _, b := range boards {
			fmt.Printf("%-24s v%-4d %-30s %s\n", b.StableID, b.Version, b.Name, b.UpdatedAt.Format(time.RFC3339))
		}

	case "pull":
		if len(args) < 4 {
			usageExit("pull requires <dir> and <stable-id>")
		}
		cli := remoteClient(l)
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		env, err := cli.PullDocument(ctx, args[3])
		if err != nil {
			fail(l, "pull failed", err)
		}
		var proj domain.Project
		if err := json.Unmarshal(env.Document, &proj); err != nil {
			fail(l, "pull failed", fmt.Errorf("decode server document: %w", err))
		}
		abs, _ := filepath.Abs(args[2])
		h, err := storage.Open(abs)
		if err != nil {
			h, err = storage.InitProject(abs, proj)
			if err != nil {
				fail(l, "pull failed", err)
			}
		} else {
			h.Project = proj
			if err := storage.Save(h); err != nil {
				fail(l, "save failed", err)
			}
		}
		ph = h
		if err := storage.UpdateIndex(ctx, h.Root, h.Project); err != nil {
			l.Warn("index refresh failed", slog.Any("err", err))
		}
		fmt.Printf("Pulled %s v%d into %s\n", env.StableID, env.Version, abs)

	case "push":
		if len(args) < 4 {
			usageExit("push requires <dir> and <stable-id>")
		}
		h := openAt(l, args[2])
		ph = h
		doc, err := json.Marshal(h.Project)
		if err != nil {
			fail(l, "push failed", err)
		}
		cli := remoteClient(l)
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		rec, err := cli.PushDocument(ctx, args[3], doc)
		if err != nil {
			fail(l, "push failed", err)
		}
		fmt.Printf("Pushed %s, server version is now v%d\n", rec.StableID, rec.Version)

	case "serve":
		l.Info("starting share backend")
		if err := backend.Start(); err != nil {
			fail(l, "serve failed", err)
		}

	case "ui":
		var dir string
		if len(args) >= 3 {
			dir = args[2]
		}
		if err := ui.Run(dir); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		usageExit("unknown command: " + args[1])
	}
}
