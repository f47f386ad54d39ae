// Package panels provides the editor side panel.
package panels

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"course-setter/internal/course"
	"course-setter/internal/editor"
	"course-setter/internal/mask"
	"course-setter/internal/metrics"
	"course-setter/ui/canvas"
)

const (
	modePlace  = "Place controls"
	modeRoutes = "Draw routes"
	modeScale  = "Scale map"
	modeMask   = "Edit mask"
)

// CoursePanel shows the pair and route tables plus the per-mode tools.
type CoursePanel struct {
	session *editor.Session
	canvas  *canvas.CourseCanvas
	window  fyne.Window

	modeRadio  *widget.RadioGroup
	pairList   *widget.List
	complexChk *widget.Check
	routeRows  *fyne.Container

	maskTools  *widget.RadioGroup
	brushLabel *widget.Label
	maskBox    fyne.CanvasObject

	scaleStatus *widget.Label
	distEntry   *widget.Entry
	scaleBox    fyne.CanvasObject

	container fyne.CanvasObject
}

// New creates the side panel bound to a session and canvas.
func New(session *editor.Session, cvs *canvas.CourseCanvas, window fyne.Window) *CoursePanel {
	cp := &CoursePanel{
		session: session,
		canvas:  cvs,
		window:  window,
	}
	cp.buildModeRadio()
	cp.buildPairList()
	cp.buildMaskTools()
	cp.buildScaleTools()

	cp.routeRows = container.NewVBox()

	cp.container = container.NewVBox(
		widget.NewLabelWithStyle("Mode", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.modeRadio,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Control pairs", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.pairList,
		cp.complexChk,
		container.NewHBox(
			widget.NewButton("Next pair", func() {
				session.NextPair()
				cp.Reload()
			}),
			widget.NewButton("Delete", func() {
				session.Delete()
				cp.Reload()
			}),
		),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Routes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.routeRows,
		widget.NewSeparator(),
		cp.maskBox,
		cp.scaleBox,
	)

	session.On(editor.EventDocumentChanged, func(interface{}) { cp.Reload() })
	session.On(editor.EventModeChanged, func(interface{}) { cp.syncMode() })
	session.On(editor.EventScaleCaptured, func(interface{}) { cp.promptDistance() })

	cp.Reload()
	return cp
}

// Container returns the panel container.
func (cp *CoursePanel) Container() fyne.CanvasObject {
	return container.NewVScroll(cp.container)
}

func (cp *CoursePanel) buildModeRadio() {
	cp.modeRadio = widget.NewRadioGroup(
		[]string{modePlace, modeRoutes, modeScale, modeMask},
		func(selected string) {
			switch selected {
			case modePlace:
				cp.session.SetMode(editor.ModePlaceControls)
			case modeRoutes:
				cp.session.SetMode(editor.ModeDrawRoutes)
			case modeScale:
				cp.session.BeginScaleCalibration()
			case modeMask:
				cp.session.SetMode(editor.ModeEditMask)
			}
			cp.Reload()
		},
	)
	cp.modeRadio.SetSelected(modePlace)
}

func (cp *CoursePanel) buildPairList() {
	cp.pairList = widget.NewList(
		func() int { return len(cp.session.Doc.Pairs) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			cp2 := cp.session.Doc.Pair(i)
			state := "placing"
			if cp2 != nil && cp2.Placed() {
				state = fmt.Sprintf("%d routes", len(cp2.Routes))
			}
			label.SetText(fmt.Sprintf("Pair %d (%s)", i+1, state))
		},
	)
	cp.pairList.OnSelected = func(i widget.ListItemID) {
		cp.session.SelectPair(i)
		cp.Reload()
	}

	cp.complexChk = widget.NewCheck("Left/right pair", func(checked bool) {
		pair := cp.session.Doc.Pair(cp.session.PairIndex())
		if pair == nil {
			return
		}
		if err := pair.SetComplex(!checked); err != nil {
			dialog.ShowError(err, cp.window)
			cp.complexChk.SetChecked(false)
		}
		cp.canvas.Refresh()
	})
}

func (cp *CoursePanel) buildMaskTools() {
	cp.brushLabel = widget.NewLabel("")
	cp.maskTools = widget.NewRadioGroup(
		[]string{"Add barrier", "Remove barrier"},
		func(selected string) {
			switch selected {
			case "Add barrier":
				cp.session.SetMaskTool(mask.ToolAdd)
			case "Remove barrier":
				cp.session.SetMaskTool(mask.ToolRemove)
			default:
				cp.session.SetMaskTool(mask.ToolNone)
			}
		},
	)

	cp.maskBox = container.NewVBox(
		widget.NewLabelWithStyle("Mask", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.maskTools,
		container.NewHBox(
			widget.NewButton("-", func() {
				cp.session.Brush.Adjust(false)
				cp.updateBrushLabel()
			}),
			cp.brushLabel,
			widget.NewButton("+", func() {
				cp.session.Brush.Adjust(true)
				cp.updateBrushLabel()
			}),
		),
	)
	cp.updateBrushLabel()
}

func (cp *CoursePanel) buildScaleTools() {
	cp.scaleStatus = widget.NewLabel("Click both ends of a known distance.")
	cp.distEntry = widget.NewEntry()
	cp.distEntry.SetPlaceHolder("distance in meters")

	submit := widget.NewButton("Apply scale", func() {
		meters, err := strconv.ParseFloat(cp.distEntry.Text, 64)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid distance %q", cp.distEntry.Text), cp.window)
			return
		}
		if err := cp.session.SubmitScale(meters); err != nil {
			dialog.ShowError(err, cp.window)
			return
		}
		cp.distEntry.SetText("")
		cp.Reload()
	})

	cp.scaleBox = container.NewVBox(
		widget.NewLabelWithStyle("Scale", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.scaleStatus,
		cp.distEntry,
		submit,
	)
}

func (cp *CoursePanel) promptDistance() {
	cp.scaleStatus.SetText("Enter the real distance between the two points.")
	cp.window.Canvas().Focus(cp.distEntry)
}

func (cp *CoursePanel) updateBrushLabel() {
	cp.brushLabel.SetText(fmt.Sprintf("Brush %d", cp.session.Brush.Radius))
}

// SyncMode reflects a mode or mask-tool change made outside the panel,
// such as a keyboard shortcut.
func (cp *CoursePanel) SyncMode() {
	switch cp.session.MaskTool() {
	case mask.ToolAdd:
		cp.maskTools.SetSelected("Add barrier")
	case mask.ToolRemove:
		cp.maskTools.SetSelected("Remove barrier")
	}
	cp.syncMode()
}

// syncMode reflects a mode change made outside the radio group.
func (cp *CoursePanel) syncMode() {
	switch cp.session.Mode() {
	case editor.ModePlaceControls:
		cp.modeRadio.SetSelected(modePlace)
	case editor.ModeDrawRoutes:
		cp.modeRadio.SetSelected(modeRoutes)
	case editor.ModeScaleMap:
		cp.modeRadio.SetSelected(modeScale)
	case editor.ModeEditMask:
		cp.modeRadio.SetSelected(modeMask)
	}
	cp.maskBox.(*fyne.Container).Hidden = cp.session.Mode() != editor.ModeEditMask
	cp.scaleBox.(*fyne.Container).Hidden = cp.session.Mode() != editor.ModeScaleMap
	cp.container.Refresh()
}

// Reload rebuilds the pair and route widgets from the document.
func (cp *CoursePanel) Reload() {
	cp.pairList.Refresh()

	pair := cp.session.Doc.Pair(cp.session.PairIndex())
	if pair != nil {
		cp.complexChk.SetChecked(!pair.Complex)
	}

	cp.routeRows.Objects = nil
	if pair != nil {
		for i, route := range pair.Routes {
			cp.routeRows.Add(cp.routeRow(pair, route, i))
		}
	}
	cp.routeRows.Refresh()
	cp.updateBrushLabel()
	cp.syncMode()
}

// routeRow builds one route summary row with an editable elevation entry.
func (cp *CoursePanel) routeRow(pair *course.ControlPair, route *course.Route, index int) fyne.CanvasObject {
	summary := widget.NewLabel(routeSummary(pair, route, index))

	elev := newElevationEntry(cp.canvas)
	elev.SetText(strconv.FormatFloat(route.Elevation, 'f', -1, 64))
	elev.OnChanged = func(text string) {
		meters, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return
		}
		route.Elevation = meters
		if route.Length != nil {
			rt := metrics.RunTime(*route.Length, meters)
			route.RunTime = &rt
		}
		summary.SetText(routeSummary(pair, route, index))
	}

	selectBtn := widget.NewButton("Draw", func() {
		cp.session.SelectRoute(index)
		cp.session.SetMode(editor.ModeDrawRoutes)
	})
	deleteBtn := widget.NewButton("Remove", func() {
		pair.RemoveRoute(index)
		cp.session.SelectRoute(0)
		cp.Reload()
		cp.canvas.Refresh()
	})

	return container.NewVBox(
		summary,
		container.NewHBox(widget.NewLabel("Climb (m)"), elev, selectBtn, deleteBtn),
	)
}

func routeSummary(pair *course.ControlPair, route *course.Route, index int) string {
	text := fmt.Sprintf("Route %d", index+1)
	if route.Length != nil {
		text += fmt.Sprintf(": %dm", *route.Length)
	}
	if route.SharpTurns != nil {
		text += fmt.Sprintf(", %d sharp turns", *route.SharpTurns)
	}
	if route.RunTime != nil {
		text += fmt.Sprintf(", %.0fs", *route.RunTime)
	}
	if !pair.Complex && route.SideWeight != nil {
		if *route.SideWeight < 0 {
			text += " (left)"
		} else {
			text += " (right)"
		}
	}
	return text
}

// elevationEntry pauses canvas previews while focused so typing does not
// race the redraw loop.
type elevationEntry struct {
	widget.Entry
	canvas *canvas.CourseCanvas
}

func newElevationEntry(cvs *canvas.CourseCanvas) *elevationEntry {
	e := &elevationEntry{canvas: cvs}
	e.ExtendBaseWidget(e)
	return e
}

func (e *elevationEntry) FocusGained() {
	e.canvas.SetPreviewSuppressed(true)
	e.Entry.FocusGained()
}

func (e *elevationEntry) FocusLost() {
	e.canvas.SetPreviewSuppressed(false)
	e.Entry.FocusLost()
}
