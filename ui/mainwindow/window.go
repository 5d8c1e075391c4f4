// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cutout-studio/internal/app"
	"cutout-studio/internal/imaging"
	"cutout-studio/internal/maskstats"
	"cutout-studio/internal/repair"
	"cutout-studio/internal/version"
	"cutout-studio/ui/canvas"
	"cutout-studio/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/rs/zerolog"
)

const baseTitle = "Cutout Studio"

const (
	prefKeyOpenDir   = "dir.open"
	prefKeyLastPhoto = "photo.last"
	prefKeyBrushSize = "brush.size"
	prefKeyBrushMode = "brush.mode"
	prefKeyChecker   = "preview.checker"
	prefKeyWinW      = "window.width"
	prefKeyWinH      = "window.height"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	log   zerolog.Logger

	canvas    *canvas.RepairCanvas
	statusBar *widget.Label
	busyBar   *widget.ProgressBarInfinite

	cutoutBtn  *widget.Button
	repairBtn  *widget.Button
	commitBtn  *widget.Button
	discardBtn *widget.Button
	undoBtn    *widget.Button
	redoBtn    *widget.Button

	modeRadio    *widget.RadioGroup
	radiusSlider *widget.Slider
	radiusLabel  *widget.Label
	checkerCheck *widget.Check
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, log zerolog.Logger) *MainWindow {
	win := fyneApp.NewWindow(baseTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		log:    log,
	}

	mw.Resize(fyne.NewSize(
		float32(p.Float(prefKeyWinW, 1100)),
		float32(p.Float(prefKeyWinH, 800)),
	))

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.applyBrushPrefs()
	mw.restoreLastPhoto()
	mw.refreshControls()

	mw.SetOnClosed(mw.persistPrefs)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewRepairCanvas(mw.state)
	mw.canvas.OnStroke(mw.refreshControls)

	mw.statusBar = widget.NewLabel("Ready")
	mw.busyBar = widget.NewProgressBarInfinite()
	mw.busyBar.Hide()

	mw.cutoutBtn = widget.NewButton("Cut Out", mw.onCutOut)
	mw.repairBtn = widget.NewButton("Repair", mw.onRepair)
	mw.commitBtn = widget.NewButton("Commit", mw.onCommit)
	mw.discardBtn = widget.NewButton("Discard", mw.onDiscard)
	mw.undoBtn = widget.NewButton("Undo", mw.onUndo)
	mw.redoBtn = widget.NewButton("Redo", mw.onRedo)

	toolbar := container.NewHBox(
		widget.NewButton("Open...", mw.onOpenPhoto),
		mw.cutoutBtn,
		widget.NewSeparator(),
		mw.repairBtn,
		mw.commitBtn,
		mw.discardBtn,
		widget.NewSeparator(),
		mw.undoBtn,
		mw.redoBtn,
	)

	mw.modeRadio = widget.NewRadioGroup([]string{"Restore", "Erase"}, mw.onModeChanged)
	mw.modeRadio.Horizontal = true

	mw.radiusLabel = widget.NewLabel("")
	mw.radiusSlider = widget.NewSlider(1, 64)
	mw.radiusSlider.OnChanged = mw.onRadiusChanged

	mw.checkerCheck = widget.NewCheck("Checkerboard", mw.onCheckerChanged)

	brushBar := container.NewBorder(
		nil, nil,
		container.NewHBox(mw.modeRadio, mw.radiusLabel),
		mw.checkerCheck,
		mw.radiusSlider,
	)

	content := container.NewBorder(
		container.NewVBox(toolbar, brushBar), // top
		container.NewBorder(nil, nil, nil, mw.busyBar, mw.statusBar), // bottom
		nil, nil,
		mw.canvas, // center
	)

	mw.SetContent(content)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Cutout...", mw.onExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Cut Out Subject", mw.onCutOut),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Repair Mask", mw.onRepair),
		fyne.NewMenuItem("Commit Repairs", mw.onCommit),
		fyne.NewMenuItem("Discard Repairs", mw.onDiscard),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu, helpMenu))
}

// setupShortcuts binds the editing keys.
func (mw *MainWindow) setupShortcuts() {
	undo := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	mw.Canvas().AddShortcut(undo, func(fyne.Shortcut) { mw.onUndo() })

	redo := &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}
	mw.Canvas().AddShortcut(redo, func(fyne.Shortcut) { mw.onRedo() })
}

// setupEventHandlers registers for application events. Listeners run on
// whichever goroutine emits, including the segmentation worker.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventPhotoLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(baseTitle + " - " + filepath.Base(path))
			mw.updateStatus("Photo loaded: " + filepath.Base(path))
		}
		mw.canvas.Refresh()
		mw.refreshControls()
	})

	mw.state.On(app.EventSegmentationStarted, func(interface{}) {
		mw.updateStatus("Cutting out subject...")
	})

	mw.state.On(app.EventSegmentationFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Cut out failed: " + err.Error())
		}
		mw.refreshControls()
	})

	mw.state.On(app.EventResultChanged, func(interface{}) {
		mw.canvas.Refresh()
		mw.updateStatus(mw.describeResult())
		mw.refreshControls()
	})

	mw.state.On(app.EventBusyChanged, func(data interface{}) {
		if busy, ok := data.(bool); ok && busy {
			mw.busyBar.Show()
			mw.busyBar.Start()
		} else {
			mw.busyBar.Stop()
			mw.busyBar.Hide()
		}
		mw.refreshControls()
	})

	mw.state.On(app.EventRepairStarted, func(interface{}) {
		// Sessions always open on the context backdrop; reapply the choice.
		mw.onCheckerChanged(mw.checkerCheck.Checked)
		mw.updateStatus("Repairing: paint to restore, switch to Erase to cut")
		mw.canvas.Refresh()
		mw.refreshControls()
	})

	mw.state.On(app.EventRepairEnded, func(interface{}) {
		mw.canvas.Refresh()
		mw.refreshControls()
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// describeResult summarizes the current cutout for the status bar.
func (mw *MainWindow) describeResult() string {
	result := mw.state.Result()
	if result == nil {
		return "Ready"
	}
	st := maskstats.Summary(result)
	return fmt.Sprintf("%dx%d: %.0f%% opaque, %.0f%% clear, %.0f%% soft edge",
		st.Width, st.Height,
		st.OpaqueFraction*100, st.ClearFraction*100, st.PartialFraction*100)
}

// refreshControls enables the actions that make sense in the current state.
func (mw *MainWindow) refreshControls() {
	editing := mw.state.Session().Editing()
	busy := mw.state.Busy()
	hasPhoto := mw.state.Photo() != nil
	hasResult := mw.state.Result() != nil

	setEnabled(mw.cutoutBtn, hasPhoto && !busy)
	setEnabled(mw.repairBtn, hasResult && !busy && !editing)
	setEnabled(mw.commitBtn, editing)
	setEnabled(mw.discardBtn, editing)
	setEnabled(mw.undoBtn, editing && mw.state.Session().CanUndo())
	setEnabled(mw.redoBtn, editing && mw.state.Session().CanRedo())
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// applyBrushPrefs restores the saved brush configuration.
func (mw *MainWindow) applyBrushPrefs() {
	radius := mw.prefs.Int(prefKeyBrushSize, repair.DefaultBrushRadius)
	mw.radiusSlider.SetValue(float64(radius))
	mw.onRadiusChanged(float64(radius))

	mode := mw.prefs.String(prefKeyBrushMode, "Restore")
	mw.modeRadio.SetSelected(mode)

	mw.checkerCheck.SetChecked(mw.prefs.Bool(prefKeyChecker, false))
}

// restoreLastPhoto reloads the photo from the previous run, if it still exists.
func (mw *MainWindow) restoreLastPhoto() {
	path := mw.prefs.String(prefKeyLastPhoto, "")
	if path == "" {
		return
	}
	if err := mw.state.LoadPhoto(path); err != nil {
		mw.log.Warn().Err(err).Str("path", path).Msg("could not restore last photo")
	}
}

// persistPrefs records the window geometry and writes preferences to disk.
func (mw *MainWindow) persistPrefs() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefKeyWinW, float64(size.Width))
	mw.prefs.SetFloat(prefKeyWinH, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warn().Err(err).Msg("could not save preferences")
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyOpenDir, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyOpenDir, filepath.Dir(filePath))
}

// Control handlers

func (mw *MainWindow) onModeChanged(selected string) {
	if selected == "Erase" {
		mw.state.Session().SetMode(repair.ModeErase)
	} else {
		mw.state.Session().SetMode(repair.ModeRestore)
	}
	mw.prefs.SetString(prefKeyBrushMode, selected)
}

func (mw *MainWindow) onRadiusChanged(value float64) {
	radius := int(value)
	mw.state.Session().SetBrushRadius(radius)
	mw.radiusLabel.SetText(fmt.Sprintf("Brush: %d px", radius))
	mw.prefs.SetInt(prefKeyBrushSize, radius)
}

func (mw *MainWindow) onCheckerChanged(checked bool) {
	if checked {
		mw.state.Session().SetPreview(repair.PreviewCheckerboard)
	} else {
		mw.state.Session().SetPreview(repair.PreviewContext)
	}
	mw.prefs.SetBool(prefKeyChecker, checked)
	mw.canvas.Refresh()
}

// Menu action handlers

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadPhoto(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefKeyLastPhoto, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imaging.SupportedExtensions()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCutOut() {
	if err := mw.state.RunSegmentation(context.Background()); err != nil {
		mw.updateStatus("Cut out: " + err.Error())
	}
}

func (mw *MainWindow) onRepair() {
	cw, ch := mw.canvas.PixelSize()
	err := mw.state.BeginRepair(cw, ch)
	if err == nil {
		return
	}
	if errors.Is(err, repair.ErrCanvasNotReady) {
		// The canvas has not been laid out yet; retry once it has a size.
		go func() {
			time.Sleep(100 * time.Millisecond)
			cw, ch := mw.canvas.PixelSize()
			if err := mw.state.BeginRepair(cw, ch); err != nil {
				mw.updateStatus("Repair: " + err.Error())
			}
		}()
		return
	}
	mw.updateStatus("Repair: " + err.Error())
}

func (mw *MainWindow) onCommit() {
	if err := mw.state.CommitRepair(); err != nil {
		mw.updateStatus("Commit: " + err.Error())
		return
	}
	mw.updateStatus("Repairs committed")
}

func (mw *MainWindow) onDiscard() {
	mw.state.DiscardRepair()
	mw.updateStatus("Repairs discarded")
}

func (mw *MainWindow) onUndo() {
	s := mw.state.Session()
	if !s.Editing() || !s.Undo() {
		return
	}
	mw.canvas.Refresh()
	mw.refreshControls()
}

func (mw *MainWindow) onRedo() {
	s := mw.state.Session()
	if !s.Editing() || !s.Redo() {
		return
	}
	mw.canvas.Refresh()
	mw.refreshControls()
}

func (mw *MainWindow) onExport() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.saveLastDir(path)
		if err := mw.state.ExportResult(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + filepath.Base(path))
	}, mw.Window)

	name := "cutout.png"
	if p := mw.state.PhotoPath(); p != "" {
		name = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) + "-cutout.png"
	}
	fd.SetFileName(name)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+baseTitle,
		fmt.Sprintf("%s %s\n\n"+
			"Cut a subject out of a photo, then repair the mask by hand:\n"+
			"paint to restore, erase to cut away.",
			baseTitle, version.String()),
		mw.Window)
}
