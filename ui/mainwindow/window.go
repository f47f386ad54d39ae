// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"course-setter/internal/course"
	"course-setter/internal/editor"
	imgutil "course-setter/internal/image"
	"course-setter/internal/mapscale"
	"course-setter/internal/mask"
	"course-setter/internal/metrics"
	"course-setter/internal/predict"
	"course-setter/internal/project"
	"course-setter/internal/version"
	"course-setter/ui/canvas"
	"course-setter/ui/panels"
	"course-setter/ui/prefs"
)

const (
	prefKeyLastCourse = "lastCourse"
	prefKeyLastDir    = "lastDirectory"
	prefKeyBrush      = "brushRadius"
	prefKeyScaleOCR   = "scaleOCR"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *editor.Session
	store   *project.Store
	prefs   *prefs.Prefs

	canvas    *canvas.CourseCanvas
	sidePanel *panels.CoursePanel
	statusBar *widget.Label

	// courseName is the name the open course was last saved under.
	courseName string

	// maskSource is the stored mask the edit buffer reconciles against.
	// The prediction worker replaces it from its own goroutine.
	maskMu     sync.Mutex
	maskSource image.Image
}

// New creates the main window.
func New(fyneApp fyne.App, session *editor.Session, store *project.Store, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Course Setter")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		store:   store,
		prefs:   appPrefs,
	}

	session.Brush.Radius = appPrefs.Int(prefKeyBrush, mask.DefaultBrushRadius)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupShortcuts()
	win.Resize(fyne.NewSize(1280, 860))
	return mw
}

func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.session)
	mw.canvas.OnError = func(err error) {
		dialog.ShowError(err, mw.Window)
	}
	// Each finished brush stroke reconciles and stores the mask, so
	// edits survive even without an explicit course save.
	mw.canvas.OnStrokeEnd = func() {
		mw.saveMaskEdits()
	}
	mw.sidePanel = panels.New(mw.session, mw.canvas, mw.Window)
	mw.statusBar = widget.NewLabel("Ready")

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		mw.canvas,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)
	mw.SetContent(content)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Course", mw.onNewCourse),
		fyne.NewMenuItem("Open Course...", mw.onOpenCourse),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Map...", mw.onImportMap),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Course", mw.onSaveCourse),
		fyne.NewMenuItem("Save Course As...", func() { mw.promptSaveAs() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Published", mw.onTogglePublish),
		fyne.NewMenuItem("Delete Course...", mw.onDeleteCourse),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selection", func() {
			mw.session.Delete()
			mw.sidePanel.Reload()
		}),
		fyne.NewMenuItem("Predict Barriers", mw.onPredictMask),
		fyne.NewMenuItem("Apply Mask Edits", mw.onApplyMask),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Reset View", func() {
			mw.session.View.Reset()
			mw.canvas.Refresh()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			dialog.ShowInformation("Course Setter",
				fmt.Sprintf("Course Setter %s", version.Full()),
				mw.Window)
		}),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(editor.EventModeChanged, func(data interface{}) {
		if m, ok := data.(editor.Mode); ok {
			mw.updateStatus(fmt.Sprintf("Mode: %s", m))
		}
	})
	mw.session.On(editor.EventLoadingChanged, func(data interface{}) {
		if loading, ok := data.(bool); ok && loading {
			mw.updateStatus("Working...")
		}
	})
	mw.canvas.OnEdit = func() {
		mw.sidePanel.Reload()
	}
}

// setupShortcuts binds single-letter editing keys. Runes only reach the
// window canvas when no entry has focus, so typing a distance or an
// elevation never triggers them.
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'd':
			mw.session.Delete()
			mw.sidePanel.Reload()
		case 'n':
			mw.session.NextPair()
			mw.sidePanel.Reload()
		case 'p':
			mw.session.SetMode(editor.ModePlaceControls)
		case 'r':
			mw.session.SetMode(editor.ModeDrawRoutes)
		case 'v':
			mw.session.SetMode(editor.ModeEditMask)
		case 'a':
			mw.session.SetMode(editor.ModeEditMask)
			mw.session.SetMaskTool(mask.ToolAdd)
		case 'e':
			mw.session.SetMode(editor.ModeEditMask)
			mw.session.SetMaskTool(mask.ToolRemove)
		case 'm':
			mw.onImportMap()
		default:
			return
		}
		mw.sidePanel.SyncMode()
		mw.canvas.Refresh()
	})
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// SavePreferences persists window-level preferences.
func (mw *MainWindow) SavePreferences() {
	mw.prefs.SetInt(prefKeyBrush, mw.session.Brush.Radius)
	mw.prefs.SetString(prefKeyLastCourse, mw.courseName)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}

// Open loads a stored course by name.
func (mw *MainWindow) Open(name string) error {
	return mw.openCourse(name)
}

// RestoreLastCourse reopens the course from the previous run, if any.
func (mw *MainWindow) RestoreLastCourse() {
	name := mw.prefs.String(prefKeyLastCourse)
	if name == "" || !mw.store.Exists(name) {
		return
	}
	if err := mw.openCourse(name); err != nil {
		log.Printf("Failed to restore course %q: %v", name, err)
	}
}

func (mw *MainWindow) onNewCourse() {
	mw.courseName = ""
	mw.setMaskSource(nil)
	mw.session.ReplaceDocument(course.New())
	mw.session.View.Reset()
	mw.canvas.SetMap(nil)
	mw.canvas.SetMaskEdits(nil)
	mw.sidePanel.Reload()
	mw.updateStatus("New course")
}

func (mw *MainWindow) onOpenCourse() {
	entries, err := mw.store.List()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if len(entries) == 0 {
		dialog.ShowInformation("Open Course", "No stored courses.", mw.Window)
		return
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		label := e.Name
		if e.Published {
			label += " (published)"
		}
		names[i] = label
	}

	selector := widget.NewSelect(names, nil)
	selector.SetSelectedIndex(0)
	dialog.ShowCustomConfirm("Open Course", "Open", "Cancel", selector, func(ok bool) {
		if !ok || selector.SelectedIndex() < 0 {
			return
		}
		name := entries[selector.SelectedIndex()].Name
		if err := mw.openCourse(name); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
}

// openCourse loads a stored course with its map and mask.
func (mw *MainWindow) openCourse(name string) error {
	doc, err := mw.store.Load(name)
	if err != nil {
		return err
	}

	var mapImg image.Image
	if doc.MapFile != "" {
		layer, err := imgutil.Load(mw.store.MapPath(doc.MapFile))
		if err != nil {
			return fmt.Errorf("load map for %q: %w", name, err)
		}
		mapImg = layer.Image
	}

	mw.setMaskSource(nil)
	var edits *image.RGBA
	if doc.MapFile != "" {
		if data, err := mw.store.LoadMask(doc.MapFile); err == nil && data != nil {
			if src, err := imgutil.Decode(data); err == nil {
				mw.setMaskSource(src)
				edits = mask.FromPrediction(src)
			}
		}
	}

	mw.courseName = name
	mw.session.ReplaceDocument(doc)
	mw.session.View.Reset()
	mw.canvas.SetMap(mapImg)
	mw.canvas.SetMaskEdits(edits)
	mw.sidePanel.Reload()
	mw.updateStatus(fmt.Sprintf("Opened %q", name))
	return nil
}

func (mw *MainWindow) onImportMap() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		mw.importMap(reader.URI().Path())
	}, mw.Window)
	fd.Show()
}

// importMap stores a map image, checks its printed scale, and runs
// barrier prediction in the background.
func (mw *MainWindow) importMap(path string) {
	if !imgutil.SupportedMapExt(path) {
		dialog.ShowError(fmt.Errorf("unsupported map type %q", filepath.Ext(path)), mw.Window)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	stored, err := mw.store.SaveMap(filepath.Base(path), data)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	layer, err := imgutil.Load(mw.store.MapPath(stored))
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	scaled := mw.readPrintedScale(data)

	mw.courseName = ""
	mw.setMaskSource(nil)
	mw.session.ResetForNewMap(stored, scaled)
	mw.canvas.SetMap(layer.Image)
	mw.canvas.SetMaskEdits(nil)
	mw.sidePanel.Reload()
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(path))

	if !scaled {
		mw.updateStatus("No printed scale found, calibrate before measuring.")
	}

	mw.runPrediction(stored, layer.Image)
}

// readPrintedScale runs the scale caption OCR when enabled.
func (mw *MainWindow) readPrintedScale(data []byte) bool {
	if !mw.prefs.Bool(prefKeyScaleOCR, true) {
		return false
	}
	reader, err := mapscale.NewReader()
	if err != nil {
		log.Printf("Scale OCR unavailable: %v", err)
		return false
	}
	defer reader.Close()

	ratio, err := reader.ReadRatio(data)
	if err != nil {
		return false
	}
	return mapscale.AppliesDefaultScale(ratio)
}

// runPrediction segments barriers off the UI goroutine.
func (mw *MainWindow) runPrediction(mapFile string, mapImg image.Image) {
	bounds := mapImg.Bounds()
	estimate := predict.EstimateSeconds(bounds.Dx(), bounds.Dy(), mw.session.Doc.Scale)
	log.Printf("Predicting barriers for %s, estimated %ds", mapFile, estimate)

	mw.session.SetLoading(true)
	start := time.Now()
	go func() {
		predicted, err := predict.Barriers(mapImg, predict.DefaultOptions())
		if err != nil {
			mw.session.SetLoading(false)
			log.Printf("Barrier prediction failed: %v", err)
			return
		}
		if png, err := imgutil.EncodePNG(predicted); err == nil {
			if err := mw.store.SaveMask(mapFile, png); err != nil {
				log.Printf("Failed to store predicted mask: %v", err)
			}
		}
		mw.setMaskSource(predicted)
		mw.canvas.SetMaskEdits(mask.FromPrediction(predicted))
		mw.session.SetLoading(false)
		log.Printf("Barrier prediction finished in %s", time.Since(start).Round(time.Millisecond))
	}()
}

func (mw *MainWindow) onSaveCourse() {
	if mw.courseName == "" {
		mw.promptSaveAs()
		return
	}
	mw.saveCourse(mw.courseName, true)
}

// promptSaveAs asks for a course name. An empty name aborts the save.
func (mw *MainWindow) promptSaveAs() {
	entry := widget.NewEntry()
	entry.SetText(mw.courseName)
	dialog.ShowCustomConfirm("Save Course", "Save", "Cancel", entry, func(ok bool) {
		if !ok {
			return
		}
		mw.saveCourse(entry.Text, false)
	}, mw.Window)
}

func (mw *MainWindow) saveCourse(name string, overwrite bool) {
	metrics.UpdateRunTimes(mw.session.Doc)

	err := mw.store.Save(name, mw.session.Doc, overwrite)
	if err == project.ErrExists {
		dialog.ShowConfirm("Save Course",
			fmt.Sprintf("A course named %q exists. Overwrite?", name),
			func(ok bool) {
				if ok {
					mw.saveCourse(name, true)
				}
			}, mw.Window)
		return
	}
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	mw.courseName = name
	mw.saveMaskEdits()
	mw.updateStatus(fmt.Sprintf("Saved %q", name))
}

func (mw *MainWindow) setMaskSource(img image.Image) {
	mw.maskMu.Lock()
	mw.maskSource = img
	mw.maskMu.Unlock()
}

func (mw *MainWindow) maskSourceImage() image.Image {
	mw.maskMu.Lock()
	defer mw.maskMu.Unlock()
	return mw.maskSource
}

// saveMaskEdits reconciles the edit buffer against the stored mask and
// persists the result.
func (mw *MainWindow) saveMaskEdits() {
	edits := mw.canvas.MaskEdits()
	if edits == nil || mw.session.Doc.MapFile == "" {
		return
	}

	source := mw.maskSourceImage()
	if source == nil {
		source = image.NewRGBA(edits.Bounds())
	}
	reconciled := mask.Reconcile(source, edits)

	png, err := imgutil.EncodePNG(reconciled)
	if err != nil {
		log.Printf("Failed to encode mask: %v", err)
		return
	}
	if err := mw.store.SaveMask(mw.session.Doc.MapFile, png); err != nil {
		log.Printf("Failed to store mask: %v", err)
		return
	}
	mw.setMaskSource(reconciled)
	mw.canvas.SetMaskEdits(mask.FromPrediction(reconciled))
}

func (mw *MainWindow) onApplyMask() {
	mw.saveMaskEdits()
	mw.updateStatus("Mask edits applied")
}

func (mw *MainWindow) onPredictMask() {
	if mw.canvas.MapImage() == nil || mw.session.Doc.MapFile == "" {
		dialog.ShowInformation("Predict Barriers", "Import a map first.", mw.Window)
		return
	}
	mw.runPrediction(mw.session.Doc.MapFile, mw.canvas.MapImage())
}

func (mw *MainWindow) onTogglePublish() {
	if mw.courseName == "" {
		dialog.ShowInformation("Publish", "Save the course first.", mw.Window)
		return
	}
	published, err := mw.store.TogglePublish(mw.courseName)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.session.Doc.Published = published
	if published {
		mw.updateStatus(fmt.Sprintf("%q is now published", mw.courseName))
	} else {
		mw.updateStatus(fmt.Sprintf("%q is now unpublished", mw.courseName))
	}
}

func (mw *MainWindow) onDeleteCourse() {
	if mw.courseName == "" {
		return
	}
	name := mw.courseName
	dialog.ShowConfirm("Delete Course",
		fmt.Sprintf("Delete %q and its map?", name),
		func(ok bool) {
			if !ok {
				return
			}
			if err := mw.store.Delete(name); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.onNewCourse()
		}, mw.Window)
}
