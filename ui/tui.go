package ui

import (
	"fmt"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"

	"bakery/version"
)

type tuiWindow struct {
	shutdownch chan bool

	app *views.Application

	jobs  *tablePanel
	steps *tablePanel

	views.Panel
}

func (a *tuiWindow) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'Q', 'q':
				a.shutdownch <- true
				return true
			}
		}
	}
	return a.Panel.HandleEvent(ev)
}

func (a *tuiWindow) Draw() {
	a.Panel.Draw()
}

func (a *tuiWindow) updateJobs(upsert map[string]tuiTR, remove map[string]tuiTR) bool {
	resize := a.jobs.table.handleUpdates(upsert, remove)
	if resize {
		a.jobs.Resize()
	}
	return resize
}

func (a *tuiWindow) updateSteps(upsert map[string]tuiTR, remove map[string]tuiTR) bool {
	resize := a.steps.table.handleUpdates(upsert, remove)
	if resize {
		a.steps.Resize()
	}
	return resize
}

func newTableWidget(name string) *views.Panel {
	panel := views.NewPanel()

	title := views.NewTextBar()
	title.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorTeal).
		Foreground(tcell.ColorWhite))

	title.SetCenter(name, tcell.StyleDefault)

	panel.SetTitle(title)

	return panel
}

type tablePanel struct {
	table *tuiTable
	views.Panel
}

func jobsWidget() *tablePanel {
	tw := newTableWidget("Jobs")
	t := newTUITable([]tuiTH{
		{"ID", 12},
		{"Recipe", 15},
		{"Kind", 6},
		{"State", jstateMaxLen},
		{"Detail", 0},
	})

	tw.SetContent(t)
	tw.Resize()

	return &tablePanel{
		table: t,
		Panel: *tw,
	}
}

func stepsWidget() *tablePanel {
	maxStepLen := len("context")

	tw := newTableWidget("Steps")
	t := newTUITable([]tuiTH{
		{"Job", 12},
		{"Recipe", 15},
		{"Step", maxStepLen},
		{"State", sstateMaxLen},
		{"Attempt", 5},
		{"Error", 0},
	})
	tw.SetContent(t)
	tw.Resize()
	return &tablePanel{
		table: t,
		Panel: *tw,
	}
}

func createTuiApp(shutdownch chan bool) (*views.Application, *tuiWindow) {

	kbbg := tcell.StyleDefault.
		Background(tcell.ColorSilver)

	kbstyle := kbbg.Foreground(tcell.ColorBlack)

	keybar := views.NewSimpleStyledTextBar()

	keybar.SetStyle(kbstyle)

	keybar.RegisterLeftStyle('N', kbstyle)

	keybar.RegisterLeftStyle('A', kbstyle.Foreground(tcell.ColorRed))

	keybar.SetLeft("%N[%AQ%N] Quit")

	keybar.RegisterRightStyle('N', kbstyle)
	keybar.SetRight(fmt.Sprintf("%%NBakery %v", version.String()))

	app := &views.Application{}

	window := &tuiWindow{
		shutdownch: shutdownch,
		app:        app,
		jobs:       jobsWidget(),
		steps:      stepsWidget(),
	}

	layout := views.NewBoxLayout(views.Vertical)

	layout.AddWidget(window.jobs, 0.0)
	layout.AddWidget(window.steps, 0.0)
	layout.AddWidget(views.NewSpacer(), 1.0)

	window.SetMenu(keybar)
	window.SetContent(layout)

	app.SetStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorBlack))

	app.SetRootWidget(window)

	return app, window
}
