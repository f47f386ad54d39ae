// Package main provides the entry point for the Course Setter application.
package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	courseapp "course-setter/internal/app"
	"course-setter/internal/editor"
	"course-setter/internal/project"
	"course-setter/internal/version"
	"course-setter/ui/mainwindow"
	"course-setter/ui/prefs"
)

const appTitle = "Course Setter"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := app.NewWithID("course-setter")
	fyneApp.Settings().SetTheme(&courseapp.CourseSetterTheme{})

	store, err := project.Open(storeDir())
	if err != nil {
		log.Fatalf("Failed to open course store: %v", err)
	}

	session := editor.NewSession()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, session, store, appPrefs)

	// A course name on the command line opens it directly.
	if len(os.Args) > 1 {
		if err := win.Open(os.Args[1]); err != nil {
			log.Printf("Failed to open course %q: %v", os.Args[1], err)
		}
	} else {
		win.RestoreLastCourse()
	}

	setupHotReload(win)

	win.SetOnClosed(func() {
		win.SavePreferences()
	})
	win.ShowAndRun()
}

// storeDir returns the course store location, COURSE_SETTER_DATA or a
// default under the user config directory.
func storeDir() string {
	if dir := os.Getenv("COURSE_SETTER_DATA"); dir != "" {
		return dir
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "course-setter", "courses")
}

// setupHotReload configures automatic restart detection when the binary is
// recompiled.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := courseapp.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}
	log.Printf("Hot reload: watching %s", reloader.ExecPath())

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(ok bool) {
				if !ok {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				win.SavePreferences()
				log.Println("Hot reload: restarting...")
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})

	reloader.Start()
}
