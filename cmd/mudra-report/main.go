// Command mudra-report renders recorded control sessions from the mudra
// database as standalone HTML chart pages.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ayusman/mudra/internal/store"
)

func main() {
	dbPath := flag.String("db", defaultDBPath(), "path to the mudra database")
	sessionID := flag.String("session", "", "render a single session ID (default: all)")
	outDir := flag.String("out", "mudra-report", "output directory for HTML files")
	flag.Parse()

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	sessions, err := loadSessions(st, *sessionID)
	if err != nil {
		log.Fatalf("Failed to load sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions found")
		return
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rendered := 0
	for _, sess := range sessions {
		frames, err := st.Sessions().Frames(sess.ID)
		if err != nil {
			log.Printf("failed to load frames for session %s: %v", sess.ID, err)
			continue
		}
		if len(frames) == 0 {
			continue
		}

		outPath := filepath.Join(*outDir, "session-"+sess.ID+".html")
		if err := renderSession(sess, frames, outPath); err != nil {
			log.Printf("failed to render session %s: %v", sess.ID, err)
			continue
		}

		fmt.Printf("Rendered session %s (%d frames) to %s\n", sess.ID, len(frames), outPath)
		rendered++
	}

	fmt.Printf("%d of %d sessions rendered\n", rendered, len(sessions))
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "mudra.db"
	}
	return filepath.Join(homeDir, ".mudra", "mudra.db")
}

func loadSessions(st *store.Store, id string) ([]*store.Session, error) {
	if id != "" {
		sess, err := st.Sessions().GetByID(id)
		if err != nil {
			return nil, err
		}
		return []*store.Session{sess}, nil
	}
	return st.Sessions().List()
}

// newLine builds a line chart with the shared layout options.
func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	return line
}

// renderSession writes one HTML page with the raw vs filtered index-tip
// traces and the per-frame delta series of a recorded session.
func renderSession(sess *store.Session, frames []store.FrameRow, outPath string) error {
	labels := make([]string, 0, len(frames))
	rawX := make([]opts.LineData, 0, len(frames))
	filteredX := make([]opts.LineData, 0, len(frames))
	rawY := make([]opts.LineData, 0, len(frames))
	filteredY := make([]opts.LineData, 0, len(frames))
	dPanX := make([]opts.LineData, 0, len(frames))
	dPanY := make([]opts.LineData, 0, len(frames))
	dTheta := make([]opts.LineData, 0, len(frames))
	dPhi := make([]opts.LineData, 0, len(frames))
	dRadius := make([]opts.LineData, 0, len(frames))
	confidence := make([]opts.LineData, 0, len(frames))

	base := frames[0].TsMs
	for _, f := range frames {
		labels = append(labels, fmt.Sprintf("%.2f", float64(f.TsMs-base)/1000.0))
		rawX = append(rawX, opts.LineData{Value: f.RawX})
		filteredX = append(filteredX, opts.LineData{Value: f.FilteredX})
		rawY = append(rawY, opts.LineData{Value: f.RawY})
		filteredY = append(filteredY, opts.LineData{Value: f.FilteredY})
		dPanX = append(dPanX, opts.LineData{Value: f.DPanX})
		dPanY = append(dPanY, opts.LineData{Value: f.DPanY})
		dTheta = append(dTheta, opts.LineData{Value: f.DTheta})
		dPhi = append(dPhi, opts.LineData{Value: f.DPhi})
		dRadius = append(dRadius, opts.LineData{Value: f.DRadius})
		confidence = append(confidence, opts.LineData{Value: f.Confidence})
	}

	subtitle := fmt.Sprintf("session=%s frames=%d started=%s",
		sess.ID, len(frames), sess.StartedAt.Format(time.RFC3339))

	posX := newLine("Index tip X", subtitle)
	posX.SetXAxis(labels).
		AddSeries("raw", rawX).
		AddSeries("filtered", filteredX)

	posY := newLine("Index tip Y", subtitle)
	posY.SetXAxis(labels).
		AddSeries("raw", rawY).
		AddSeries("filtered", filteredY)

	deltas := newLine("Camera deltas", subtitle)
	deltas.SetXAxis(labels).
		AddSeries("dPanX", dPanX).
		AddSeries("dPanY", dPanY).
		AddSeries("dTheta", dTheta).
		AddSeries("dPhi", dPhi).
		AddSeries("dRadius", dRadius)

	conf := newLine("Gesture confidence", subtitle)
	conf.SetXAxis(labels).
		AddSeries("confidence", confidence)

	page := components.NewPage()
	page.AddCharts(posX, posY, deltas, conf)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return page.Render(f)
}
