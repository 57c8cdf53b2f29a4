//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gridboard/internal/board"
	"gridboard/internal/crash"
	"gridboard/internal/domain"
	"gridboard/internal/export"
	"gridboard/internal/grid"
	"gridboard/internal/interact"
	applog "gridboard/internal/log"
	"gridboard/internal/registry"
	"gridboard/internal/storage"
	"gridboard/internal/telemetry"
	"gridboard/internal/templatepack"
	"gridboard/internal/templates"
	"gridboard/internal/undo"
	"gridboard/internal/version"
)

// Run starts the Fyne-based desktop board editor.
func Run(projectDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	telemetry.Event("app_start", map[string]any{"version": version.String()})

	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	fyneApp := app.NewWithID("gridboard")
	w := fyneApp.NewWindow("GridBoard")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	boardCanvas := NewBoardCanvas()

	currentBoardIdx := 0
	var ctrl *interact.Controller

	// Undo manager with safeguards (snapshots capture the entire dashboard)
	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024, // 32 MiB in-memory cap
		MaxPerBoard: 20,
		MinInterval: 300 * time.Millisecond,
	})

	activeBoard := func() *domain.Dashboard {
		if ph == nil || len(ph.Project.Dashboards) == 0 {
			return nil
		}
		if currentBoardIdx < 0 || currentBoardIdx >= len(ph.Project.Dashboards) {
			currentBoardIdx = 0
		}
		return &ph.Project.Dashboards[currentBoardIdx]
	}

	// recordUndo captures the active board before a mutation. Drag spam is
	// coalesced by the manager's MinInterval; the gesture hook below fires on
	// every pointer-down.
	recordUndo := func() {
		d := activeBoard()
		if d == nil {
			return
		}
		blob, err := json.Marshal(*d)
		if err != nil {
			l.Error("snapshot marshal failed", slog.Any("err", err))
			return
		}
		s := undo.Snapshot{BoardID: d.ID, Blob: blob, TS: time.Now()}
		undoMgr.PushSnapshot(s)
		go func() { _ = storage.SaveLayoutSnapshot(context.Background(), ph, s.BoardID, s.Blob, s.TS) }()
	}

	var refreshBoardsList func()
	var refreshInspector func()
	var rebindCanvas func()

	applyBoardSnapshot := func(blob []byte) error {
		if ph == nil {
			return fmt.Errorf("no project open")
		}
		var d domain.Dashboard
		if err := json.Unmarshal(blob, &d); err != nil {
			return err
		}
		replaced := false
		for i := range ph.Project.Dashboards {
			if ph.Project.Dashboards[i].ID == d.ID {
				ph.Project.Dashboards[i] = d
				currentBoardIdx = i
				replaced = true
				break
			}
		}
		if !replaced {
			ph.Project.Dashboards = append(ph.Project.Dashboards, d)
			currentBoardIdx = len(ph.Project.Dashboards) - 1
		}
		rebindCanvas()
		refreshBoardsList()
		refreshInspector()
		return nil
	}

	// Boards pane (left)
	boardsDisplay := []string{}
	boardsList := widget.NewList(
		func() int { return len(boardsDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(boardsDisplay) {
				o.(*widget.Label).SetText(boardsDisplay[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	refreshBoardsList = func() {
		boardsDisplay = boardsDisplay[:0]
		if ph != nil {
			for _, d := range ph.Project.Dashboards {
				name := d.Name
				if d.HasUnsavedChanges {
					name += " *"
				}
				boardsDisplay = append(boardsDisplay, name)
			}
		}
		boardsList.Refresh()
		if currentBoardIdx >= 0 && currentBoardIdx < len(boardsDisplay) {
			boardsList.Select(currentBoardIdx)
		}
	}
	boardsList.OnSelected = func(id widget.ListItemID) {
		if ph == nil || int(id) < 0 || int(id) >= len(ph.Project.Dashboards) {
			return
		}
		if ctrl != nil {
			ctrl.CancelGesture()
		}
		currentBoardIdx = int(id)
		rebindCanvas()
		refreshInspector()
		l.Info("board selected", slog.Int("index", currentBoardIdx))
	}

	// Widget library (left, below boards). Selecting an entry arms the canvas:
	// the next tap places that widget at the pointer.
	libEntries := registry.Entries()
	libraryList := widget.NewList(
		func() int { return len(libEntries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(libEntries) {
				e := libEntries[i]
				o.(*widget.Label).SetText(fmt.Sprintf("%s  (%dx%d)", e.Name, e.DefaultSize.Width, e.DefaultSize.Height))
			}
		},
	)
	libraryList.OnSelected = func(id widget.ListItemID) {
		if int(id) < 0 || int(id) >= len(libEntries) {
			return
		}
		e := libEntries[id]
		payload, err := json.Marshal(interact.LibraryPayload{Type: "widget", WidgetType: e.Type})
		if err != nil {
			return
		}
		boardCanvas.ArmDrop(payload)
		status.SetText(fmt.Sprintf("Click the canvas to place a %s", e.Name))
		libraryList.UnselectAll()
	}

	// Inspector (right)
	inspTitle := widget.NewEntry()
	inspType := widget.NewLabel("")
	inspGeometry := widget.NewLabel("")
	inspConfig := widget.NewMultiLineEntry()
	inspConfig.Wrapping = fyne.TextWrapOff
	inspApply := widget.NewButton("Apply", nil)
	inspApply.Disable()

	refreshInspector = func() {
		d := activeBoard()
		var sel *domain.Widget
		if d != nil && ctrl != nil {
			sel = board.Find(d, ctrl.Selected())
		}
		if sel == nil {
			inspTitle.SetText("")
			inspType.SetText("—")
			inspGeometry.SetText("")
			inspConfig.SetText("")
			inspApply.Disable()
			return
		}
		inspTitle.SetText(sel.Title)
		inspType.SetText(string(sel.Type))
		inspGeometry.SetText(fmt.Sprintf("cell %d,%d  size %dx%d", sel.Position.X, sel.Position.Y, sel.Size.Width, sel.Size.Height))
		if cfg, err := json.MarshalIndent(sel.Config, "", "  "); err == nil {
			inspConfig.SetText(string(cfg))
		} else {
			inspConfig.SetText("")
		}
		inspApply.Enable()
	}
	inspApply.OnTapped = func() {
		d := activeBoard()
		if d == nil || ctrl == nil {
			return
		}
		sel := board.Find(d, ctrl.Selected())
		if sel == nil {
			return
		}
		cfg, err := domain.DecodeConfig(sel.Type, json.RawMessage(inspConfig.Text))
		if err != nil {
			dialog.ShowError(fmt.Errorf("config: %w", err), w)
			return
		}
		recordUndo()
		title := inspTitle.Text
		board.Update(d, sel.ID, board.Patch{Title: &title, Config: cfg})
		boardCanvas.Refresh()
		refreshBoardsList()
		status.SetText("Widget updated")
	}
	inspector := container.NewVBox(
		widget.NewLabel("Inspector"),
		widget.NewSeparator(),
		widget.NewForm(
			widget.NewFormItem("Title", inspTitle),
			widget.NewFormItem("Type", inspType),
			widget.NewFormItem("Placement", inspGeometry),
		),
		widget.NewLabel("Config (JSON)"),
		inspConfig,
		inspApply,
	)

	// Canvas wiring
	rebindCanvas = func() {
		d := activeBoard()
		if d == nil {
			ctrl = nil
			boardCanvas.SetController(nil)
			return
		}
		ctrl = interact.New(d)
		ctrl.OnChange = func() {
			refreshBoardsList()
			refreshInspector()
		}
		boardCanvas.SetController(ctrl)
	}
	boardCanvas.OnBeforeGesture = recordUndo
	boardCanvas.OnSelect = func(id string) {
		refreshInspector()
		if id == "" {
			status.SetText("Ready")
		} else {
			status.SetText("Selected " + id)
		}
	}
	boardCanvas.OnGestureEnd = func() {
		refreshInspector()
	}
	boardCanvas.OnContextMenu = func(id string, at fyne.Position) {
		if ctrl == nil {
			return
		}
		dup := fyne.NewMenuItem("Duplicate", func() {
			recordUndo()
			if _, ok := ctrl.DuplicateSelected(); ok {
				boardCanvas.Refresh()
				refreshBoardsList()
				refreshInspector()
				status.SetText("Widget duplicated")
			}
			ctrl.CloseMenu()
		})
		edit := fyne.NewMenuItem("Edit…", func() {
			ctrl.CloseMenu()
			refreshInspector()
			w.Canvas().Focus(inspTitle)
		})
		del := fyne.NewMenuItem("Delete", func() {
			recordUndo()
			if ctrl.RemoveSelected() {
				boardCanvas.Refresh()
				refreshBoardsList()
				refreshInspector()
				status.SetText("Widget deleted")
			}
			ctrl.CloseMenu()
		})
		pop := widget.NewPopUpMenu(fyne.NewMenu("", dup, edit, fyne.NewMenuItemSeparator(), del), w.Canvas())
		pop.ShowAtPosition(at)
	}

	// Template catalog: built-ins plus project sheets reloaded on demand
	loadCatalog := func() *templates.Catalog {
		cat := templates.NewCatalog()
		if ph != nil {
			if sheets, diags, err := templates.LoadProjectSheets(ph.Root); err == nil {
				for name, errs := range diags {
					for _, e := range errs {
						l.Warn("template sheet issue", slog.String("sheet", name), slog.String("diag", e.String()))
					}
				}
				for _, t := range sheets {
					cat.Add(t)
				}
			}
		}
		return cat
	}

	applyTemplate := func(name string) {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Template", "No board open.", w)
			return
		}
		cat := loadCatalog()
		recordUndo()
		if !cat.Instantiate(name, d) {
			dialog.ShowInformation("Template", "Unknown template: "+name, w)
			return
		}
		telemetry.Event("template_instantiate", map[string]any{"template": name})
		boardCanvas.Refresh()
		refreshBoardsList()
		refreshInspector()
		status.SetText("Applied template " + name)
	}

	showTemplatePicker := func() {
		if ph == nil {
			dialog.ShowInformation("Template", "No project open.", w)
			return
		}
		names := loadCatalog().Names()
		sel := widget.NewSelect(names, nil)
		if len(names) > 0 {
			sel.SetSelected(names[0])
		}
		dialog.ShowForm("Apply Template", "Apply", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Template", sel),
		}, func(ok bool) {
			if !ok || sel.Selected == "" {
				return
			}
			applyTemplate(sel.Selected)
		}, w)
	}

	doSave := func() {
		if ph == nil {
			dialog.ShowInformation("Save", "No project open.", w)
			return
		}
		if err := storage.Save(ph); err != nil {
			dialog.ShowError(err, w)
			return
		}
		refreshBoardsList()
		status.SetText("Project saved")
	}

	doUndo := func() {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Undo", "No board open.", w)
			return
		}
		if s, ok := undoMgr.Undo(d.ID); ok {
			if err := applyBoardSnapshot(s.Blob); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Undid last action")
		} else {
			dialog.ShowInformation("Undo", "Nothing to undo.", w)
		}
	}
	doRedo := func() {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Redo", "No board open.", w)
			return
		}
		if s, ok := undoMgr.Redo(d.ID); ok {
			if err := applyBoardSnapshot(s.Blob); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Redid last action")
		} else {
			dialog.ShowInformation("Redo", "Nothing to redo.", w)
		}
	}

	newBoardDialog := func() {
		if ph == nil {
			dialog.ShowInformation("New Board", "No project open.", w)
			return
		}
		nameEntry := widget.NewEntry()
		descEntry := widget.NewEntry()
		dialog.ShowForm("New Board", "Create", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Description", descEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			d, err := storage.AddDashboard(ph, strings.TrimSpace(nameEntry.Text), strings.TrimSpace(descEntry.Text))
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			for i := range ph.Project.Dashboards {
				if ph.Project.Dashboards[i].ID == d.ID {
					currentBoardIdx = i
				}
			}
			rebindCanvas()
			refreshBoardsList()
			refreshInspector()
			status.SetText("Created board " + d.Name)
		}, w)
	}

	runBatchExport := func(preset export.PresetName) {
		if ph == nil {
			dialog.ShowInformation("Export", "No project open.", w)
			return
		}
		if err := export.BatchExport(ph, export.BatchOptions{Preset: preset}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		telemetry.Event("board_export", map[string]any{"preset": string(preset)})
		out := filepath.Join(ph.Root, "exports", string(preset))
		dialog.ShowInformation("Export", "Exported to "+out, w)
		status.SetText("Exported " + string(preset) + " preset")
	}

	// Open project flow
	var doOpenPath func(dir string)
	doOpenPath = func(dir string) {
		if err := openProject(dir, &ph, w, l, status); err != nil {
			dialog.ShowError(err, w)
			return
		}
		currentBoardIdx = 0
		rebindCanvas()
		refreshBoardsList()
		refreshInspector()
		addRecentProject(prefs, dir)
	}
	openItem := fyne.NewMenuItem("Open Project…", func() {
		dialog.ShowFolderOpen(func(lu fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if lu == nil {
				return
			}
			doOpenPath(lu.Path())
		}, w)
	})
	recentItems := func() []*fyne.MenuItem {
		var items []*fyne.MenuItem
		for _, p := range loadRecentProjects(prefs) {
			p := p
			items = append(items, fyne.NewMenuItem(p, func() { doOpenPath(p) }))
		}
		if len(items) == 0 {
			it := fyne.NewMenuItem("(none)", nil)
			it.Disabled = true
			items = append(items, it)
		}
		return items
	}
	recentMenuItem := fyne.NewMenuItem("Open Recent", nil)
	recentMenuItem.ChildMenu = fyne.NewMenu("", recentItems()...)

	saveItem := fyne.NewMenuItem("Save", doSave)

	exportDocItem := fyne.NewMenuItem("Export Board Document…", func() {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Export Document", "No board open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			if err := storage.WriteDocumentFile(d, outPath); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export Document", "Exported to "+outPath, w)
		}, w)
		save.SetFileName("board.json")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		save.Show()
	})
	importDocItem := fyne.NewMenuItem("Import Board Document…", func() {
		if ph == nil {
			dialog.ShowInformation("Import Document", "No project open.", w)
			return
		}
		open := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			d, err := storage.ReadDocumentFile(path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			ph.Project.Dashboards = append(ph.Project.Dashboards, *d)
			currentBoardIdx = len(ph.Project.Dashboards) - 1
			rebindCanvas()
			refreshBoardsList()
			refreshInspector()
			status.SetText("Imported board " + d.Name)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		open.Show()
	})

	fileMenu := fyne.NewMenu("File",
		openItem, recentMenuItem, saveItem,
		fyne.NewMenuItemSeparator(),
		importDocItem, exportDocItem,
	)

	dupItem := fyne.NewMenuItem("Duplicate Widget", func() {
		if ctrl == nil {
			return
		}
		recordUndo()
		if _, ok := ctrl.DuplicateSelected(); ok {
			boardCanvas.Refresh()
			refreshBoardsList()
			refreshInspector()
		}
	})
	delItem := fyne.NewMenuItem("Delete Widget", func() {
		if ctrl == nil {
			return
		}
		recordUndo()
		if ctrl.RemoveSelected() {
			boardCanvas.Refresh()
			refreshBoardsList()
			refreshInspector()
		}
	})
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", doUndo),
		fyne.NewMenuItem("Redo", doRedo),
		fyne.NewMenuItemSeparator(),
		dupItem, delItem,
	)

	removeBoardItem := fyne.NewMenuItem("Delete Board…", func() {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Delete Board", "No board open.", w)
			return
		}
		dialog.ShowConfirm("Delete Board", fmt.Sprintf("Delete board %q?", d.Name), func(ok bool) {
			if !ok {
				return
			}
			undoMgr.ClearBoard(d.ID)
			storage.RemoveDashboard(ph, d.ID)
			if currentBoardIdx >= len(ph.Project.Dashboards) {
				currentBoardIdx = len(ph.Project.Dashboards) - 1
			}
			if currentBoardIdx < 0 {
				currentBoardIdx = 0
			}
			rebindCanvas()
			refreshBoardsList()
			refreshInspector()
			status.SetText("Board deleted")
		}, w)
	})
	renameBoardItem := fyne.NewMenuItem("Rename Board…", func() {
		d := activeBoard()
		if d == nil {
			dialog.ShowInformation("Rename Board", "No board open.", w)
			return
		}
		nameEntry := widget.NewEntry()
		nameEntry.SetText(d.Name)
		descEntry := widget.NewEntry()
		descEntry.SetText(d.Description)
		dialog.ShowForm("Rename Board", "Rename", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Description", descEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			if err := storage.RenameDashboard(ph, d.ID, strings.TrimSpace(nameEntry.Text), descEntry.Text); err != nil {
				dialog.ShowError(err, w)
				return
			}
			refreshBoardsList()
			status.SetText("Board renamed")
		}, w)
	})
	boardMenu := fyne.NewMenu("Board",
		fyne.NewMenuItem("New Board…", newBoardDialog),
		renameBoardItem, removeBoardItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Apply Template…", showTemplatePicker),
	)

	exportPackItem := fyne.NewMenuItem("Export Template Pack…", func() {
		if ph == nil {
			dialog.ShowInformation("Template Pack", "No project open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			if err := templatepack.ExportProjectTemplates(ph.Root, outPath); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Template Pack", "Exported to "+outPath, w)
		}, w)
		save.SetFileName("templates-pack.zip")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		save.Show()
	})
	installPackItem := fyne.NewMenuItem("Install Template Pack…", func() {
		if ph == nil {
			dialog.ShowInformation("Template Pack", "No project open.", w)
			return
		}
		open := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			n, err := templatepack.InstallPack(ph.Root, path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Template Pack", fmt.Sprintf("Installed %d sheet(s)", n), w)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		open.Show()
	})
	templatesMenu := fyne.NewMenu("Templates",
		fyne.NewMenuItem("Apply Template…", showTemplatePicker),
		fyne.NewMenuItemSeparator(),
		exportPackItem, installPackItem,
	)

	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("Screen Preset (PNG+SVG)", func() { runBatchExport(export.PresetScreen) }),
		fyne.NewMenuItem("Print Preset (PDF+PNG)", func() { runBatchExport(export.PresetPrint) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Boards as PDF…", func() {
			if ph == nil {
				dialog.ShowInformation("Export PDF", "No project open.", w)
				return
			}
			save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if uc == nil {
					return
				}
				outPath := uc.URI().Path()
				_ = uc.Close()
				if err := export.ExportBoardPDF(ph, outPath, export.PDFOptions{IncludeGuides: true}); err != nil {
					dialog.ShowError(err, w)
					return
				}
				telemetry.Event("board_export", map[string]any{"format": "pdf"})
				dialog.ShowInformation("Export PDF", "Exported to "+outPath, w)
			}, w)
			save.SetFileName("boards.pdf")
			save.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
			save.Show()
		}),
	)

	aboutItem := fyne.NewMenuItem("About GridBoard", func() {
		exe, _ := os.Executable()
		cwd, _ := os.Getwd()
		info := fmt.Sprintf("GridBoard\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s\nWorking Dir: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe, cwd)
		dialog.ShowInformation("About", info, w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem)

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, boardMenu, templatesMenu, exportMenu, aboutMenu))

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), newBoardDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), doSave),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), doUndo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), doRedo),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ListIcon(), showTemplatePicker),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { runBatchExport(export.PresetPrint) }),
	)

	left := container.NewVSplit(
		container.NewBorder(container.NewVBox(widget.NewLabel("Boards"), widget.NewSeparator()), nil, nil, nil, boardsList),
		container.NewBorder(container.NewVBox(widget.NewLabel("Library"), widget.NewSeparator()), nil, nil, nil, libraryList),
	)
	center := container.NewScroll(boardCanvas)
	content := container.NewBorder(toolbar, status, left, inspector, center)
	w.SetContent(content)

	// Cancel any in-flight gesture when the window loses focus, so pointer
	// capture loss cannot leave the controller stuck mid-drag.
	if il := fyneApp.Lifecycle(); il != nil {
		il.SetOnExitedForeground(func() {
			boardCanvas.CancelActiveGesture()
		})
	}

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	// Try to open a project if provided
	if projectDir != "" {
		if err := openProject(projectDir, &ph, w, l, status); err != nil {
			l.Error("auto-open project failed", slog.Any("err", err))
			// not fatal; continue
		} else {
			currentBoardIdx = 0
			rebindCanvas()
			refreshBoardsList()
			refreshInspector()
			addRecentProject(prefs, projectDir)
		}
	}

	w.ShowAndRun()
	return nil
}

func openProject(dir string, ph **storage.ProjectHandle, w fyne.Window, l *slog.Logger, status *widget.Label) error {
	abs, _ := filepath.Abs(dir)
	l.Info("open project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		return err
	}
	*ph = h
	w.SetTitle(fmt.Sprintf("GridBoard — %s", h.Project.Name))
	status.SetText(fmt.Sprintf("Opened project: %s", abs))
	return nil
}

// canvasPad is the pixel margin around the board inside the canvas widget.
const canvasPad float32 = 16

// BoardCanvas renders the active dashboard's grid and widgets and adapts Fyne
// pointer events for the interaction controller. All geometry decisions live
// in internal/interact; this widget only converts coordinates and draws.
type BoardCanvas struct {
	widget.BaseWidget

	ctrl *interact.Controller

	// pendingDrop, when set, is a library payload placed by the next tap.
	pendingDrop []byte

	dragging bool
	lastPt   grid.Pt

	OnBeforeGesture func()
	OnSelect        func(id string)
	OnGestureEnd    func()
	OnContextMenu   func(id string, at fyne.Position)
}

func NewBoardCanvas() *BoardCanvas {
	b := &BoardCanvas{}
	b.ExtendBaseWidget(b)
	return b
}

// SetController swaps the dashboard being edited. A nil controller blanks the
// canvas.
func (b *BoardCanvas) SetController(c *interact.Controller) {
	b.ctrl = c
	b.pendingDrop = nil
	b.dragging = false
	b.Refresh()
}

// ArmDrop stores a library payload; the next tap places it at the pointer.
func (b *BoardCanvas) ArmDrop(payload []byte) {
	b.pendingDrop = payload
}

// CancelActiveGesture forwards capture loss to the controller.
func (b *BoardCanvas) CancelActiveGesture() {
	if b.ctrl != nil {
		b.ctrl.CancelGesture()
	}
	b.dragging = false
}

func (b *BoardCanvas) toBoard(pos fyne.Position) grid.Pt {
	return grid.Pt{X: pos.X - canvasPad, Y: pos.Y - canvasPad}
}

func (b *BoardCanvas) Tapped(e *fyne.PointEvent) {
	if b.ctrl == nil {
		return
	}
	pt := b.toBoard(e.Position)
	if b.pendingDrop != nil {
		if b.OnBeforeGesture != nil {
			b.OnBeforeGesture()
		}
		b.ctrl.DropFromLibrary(b.pendingDrop, pt)
		b.pendingDrop = nil
	} else {
		// A plain tap is pointer-down plus pointer-up at the same point:
		// select, or clear on empty board.
		b.ctrl.PointerDown(pt)
		b.ctrl.PointerUp(pt)
	}
	if b.OnSelect != nil {
		b.OnSelect(b.ctrl.Selected())
	}
	b.Refresh()
}

func (b *BoardCanvas) TappedSecondary(e *fyne.PointEvent) {
	if b.ctrl == nil {
		return
	}
	pt := b.toBoard(e.Position)
	id := b.ctrl.HitTest(pt)
	if id == "" {
		b.ctrl.CloseMenu()
		return
	}
	if b.ctrl.OpenMenu(id) {
		if b.OnSelect != nil {
			b.OnSelect(id)
		}
		if b.OnContextMenu != nil {
			b.OnContextMenu(id, e.AbsolutePosition)
		}
	}
	b.Refresh()
}

func (b *BoardCanvas) Dragged(e *fyne.DragEvent) {
	if b.ctrl == nil {
		return
	}
	cur := b.toBoard(e.Position)
	if !b.dragging {
		b.dragging = true
		start := grid.Pt{X: cur.X - e.Dragged.DX, Y: cur.Y - e.Dragged.DY}
		if b.OnBeforeGesture != nil {
			b.OnBeforeGesture()
		}
		b.ctrl.PointerDown(start)
	}
	b.ctrl.PointerMove(cur)
	b.lastPt = cur
	b.Refresh()
}

func (b *BoardCanvas) DragEnd() {
	if b.ctrl == nil || !b.dragging {
		return
	}
	b.ctrl.PointerUp(b.lastPt)
	b.dragging = false
	if b.OnGestureEnd != nil {
		b.OnGestureEnd()
	}
	b.Refresh()
}

func (b *BoardCanvas) dash() *domain.Dashboard {
	if b.ctrl == nil {
		return nil
	}
	return b.ctrl.Dashboard()
}

// boardGeometry derives cell size, columns and the row count needed to show
// every widget, padding to a minimum working area.
func (b *BoardCanvas) boardGeometry() (cell float32, cols, rows int) {
	def := domain.DefaultGridSettings()
	cell = float32(def.CellSize)
	cols = def.Columns
	d := b.dash()
	if d != nil {
		if d.Settings.CellSize > 0 {
			cell = float32(d.Settings.CellSize)
		}
		if d.Settings.Columns > 0 {
			cols = d.Settings.Columns
		}
	}
	rows = 12
	if d != nil && len(d.Widgets) > 0 {
		content := grid.CellRect(d.Widgets[0].Position, d.Widgets[0].Size, cell)
		for i := 1; i < len(d.Widgets); i++ {
			content = content.Union(grid.CellRect(d.Widgets[i].Position, d.Widgets[i].Size, cell))
		}
		// One spare row below the deepest widget.
		if bottom := int(content.Max().Y/cell) + 1; bottom > rows {
			rows = bottom
		}
	}
	return cell, cols, rows
}

func (b *BoardCanvas) PreferredSize() fyne.Size {
	cell, cols, rows := b.boardGeometry()
	return fyne.NewSize(float32(cols)*cell+2*canvasPad, float32(rows)*cell+2*canvasPad)
}

func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 0xfc, G: 0xfc, B: 0xfe, A: 0xff})
	return &boardCanvasRenderer{bc: b, background: bg}
}

var (
	gridLineColor     = color.NRGBA{R: 0xd2, G: 0xd2, B: 0xd7, A: 0xff}
	widgetFillColor   = color.NRGBA{R: 0xf5, G: 0xf6, B: 0xfa, A: 0xff}
	widgetStrokeColor = color.NRGBA{R: 0x28, G: 0x28, B: 0x32, A: 0xff}
	selectionColor    = color.NRGBA{R: 0x2b, G: 0x6c, B: 0xd4, A: 0xff}
	titleColor        = color.NRGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	typeTagColor      = color.NRGBA{R: 0x78, G: 0x78, B: 0x82, A: 0xff}
)

type boardCanvasRenderer struct {
	bc         *BoardCanvas
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *boardCanvasRenderer) Destroy()                     {}
func (r *boardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardCanvasRenderer) MinSize() fyne.Size           { return r.bc.PreferredSize() }
func (r *boardCanvasRenderer) Refresh() {
	r.Layout(r.bc.Size())
	canvas.Refresh(r.bc)
}

func (r *boardCanvasRenderer) Layout(size fyne.Size) {
	objs := []fyne.CanvasObject{r.background}
	r.background.Resize(size)
	r.background.Move(fyne.NewPos(0, 0))

	d := r.bc.dash()
	if d == nil {
		hint := canvas.NewText("Open a project to edit boards", typeTagColor)
		hint.TextSize = 14
		hint.Move(fyne.NewPos(canvasPad, canvasPad))
		r.objects = append(objs, hint)
		return
	}

	cell, cols, rows := r.bc.boardGeometry()
	bw := float32(cols) * cell
	bh := float32(rows) * cell

	// Grid guides
	for c := 0; c <= cols; c++ {
		x := canvasPad + float32(c)*cell
		ln := canvas.NewLine(gridLineColor)
		ln.StrokeWidth = 1
		ln.Position1 = fyne.NewPos(x, canvasPad)
		ln.Position2 = fyne.NewPos(x, canvasPad+bh)
		objs = append(objs, ln)
	}
	for rw := 0; rw <= rows; rw++ {
		y := canvasPad + float32(rw)*cell
		ln := canvas.NewLine(gridLineColor)
		ln.StrokeWidth = 1
		ln.Position1 = fyne.NewPos(canvasPad, y)
		ln.Position2 = fyne.NewPos(canvasPad+bw, y)
		objs = append(objs, ln)
	}

	gutter := float32(domain.DefaultGridSettings().Gutter)
	if d.Settings.Gutter > 0 {
		gutter = float32(d.Settings.Gutter)
	}
	selected := ""
	if r.bc.ctrl != nil {
		selected = r.bc.ctrl.Selected()
	}

	for i := range d.Widgets {
		wd := &d.Widgets[i]
		rect := grid.CellRect(wd.Position, wd.Size, cell).Inset(gutter/2, gutter/2)

		box := canvas.NewRectangle(widgetFillColor)
		box.StrokeColor = widgetStrokeColor
		box.StrokeWidth = 1
		if wd.ID == selected {
			box.StrokeColor = selectionColor
			box.StrokeWidth = 2
		}
		box.Move(fyne.NewPos(canvasPad+rect.X, canvasPad+rect.Y))
		box.Resize(fyne.NewSize(rect.W, rect.H))
		objs = append(objs, box)

		title := canvas.NewText(wd.Title, titleColor)
		title.TextSize = 12
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.Move(fyne.NewPos(canvasPad+rect.X+6, canvasPad+rect.Y+4))
		objs = append(objs, title)

		tag := canvas.NewText(string(wd.Type), typeTagColor)
		tag.TextSize = 10
		tag.Move(fyne.NewPos(canvasPad+rect.X+6, canvasPad+rect.Y+20))
		objs = append(objs, tag)
	}

	// Corner handles on the selection
	if r.bc.ctrl != nil {
		if hs, ok := r.bc.ctrl.SelectionHandles(); ok {
			for _, h := range hs {
				hb := canvas.NewRectangle(selectionColor)
				hb.Move(fyne.NewPos(canvasPad+h.X, canvasPad+h.Y))
				hb.Resize(fyne.NewSize(h.W, h.H))
				objs = append(objs, hb)
			}
		}
	}

	r.objects = objs
}

const recentPrefsKey = "recent.projects"
const recentMax = 10

func loadRecentProjects(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	seen := map[string]bool{}
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	return out
}

func saveRecentProjects(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	p.SetString(recentPrefsKey, strings.Join(items, "\n"))
}

func addRecentProject(p fyne.Preferences, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	items := loadRecentProjects(p)
	out := []string{abs}
	for _, it := range items {
		if it != abs {
			out = append(out, it)
		}
	}
	saveRecentProjects(p, out)
}
