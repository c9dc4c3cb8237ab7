package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	record := flag.Bool("record", false, "record sessions to the database")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Mudra - Hand Camera Control")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".mudra")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "mudra.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Start the control packet hub
	hub := server.NewControlHub()
	hub.Start()
	defer hub.Stop()

	// Build the pipeline around the active profile's tuning
	a := app.New(app.Config{
		Store:     st,
		Publisher: hub,
		CameraID:  *cameraID,
		Tuning:    activeTuning(st),
		Record:    *record,
	})

	if err := a.Start(); err != nil {
		log.Printf("failed to start pipeline: %v (serving API only)", err)
	}
	defer a.Stop()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	cfg := server.Config{
		StaticDir:  webDir,
		Store:      st,
		Camera:     a.Camera(),
		Hub:        hub,
		Pipeline:   a,
		Controller: a,
		Retuner:    a,
	}

	srv := server.New(cfg)

	fmt.Printf("Starting server on %s\n", *addr)
	if *noTray {
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	go func() {
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	runTray(a, dashboardURL(*addr))
}

// activeTuning loads the active profile's tuning, falling back to the stock
// defaults when none can be decoded.
func activeTuning(st *store.Store) control.Tuning {
	profile, err := st.Profiles().GetActive()
	if err != nil {
		log.Printf("no active profile (%v), using default tuning", err)
		return control.DefaultTuning()
	}

	var tuning control.Tuning
	if err := json.Unmarshal(profile.Tuning, &tuning); err != nil {
		log.Printf("failed to decode tuning for profile %q (%v), using defaults", profile.Name, err)
		return control.DefaultTuning()
	}
	return tuning
}

// runTray blocks on the system tray main loop, mirroring the pipeline state
// into the menu. systray requires the main goroutine on macOS.
func runTray(a *app.App, url string) {
	tr := tray.New()
	tr.SetEnabled(a.IsEnabled())
	tr.OnToggle(a.SetEnabled)
	tr.OnDashboard(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("failed to open dashboard: %v", err)
		}
	})
	tr.OnQuit(a.Stop)

	go func() {
		lastMode := ""
		lastEnabled := tr.IsEnabled()
		for range time.Tick(500 * time.Millisecond) {
			if m := a.Mode(); m != lastMode {
				tr.SetMode(m)
				lastMode = m
			}
			// The enabled flag can also change through the HTTP API
			if e := a.IsEnabled(); e != lastEnabled {
				tr.SetEnabled(e)
				lastEnabled = e
			}
		}
	}()

	tr.Run()
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens url in the default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
