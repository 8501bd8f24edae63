package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"geoplot/internal/config"
	"geoplot/internal/logging"
	"geoplot/internal/tui"
)

var (
	configPath string
	logFile    string
	logLevel   string
	painterURL string
	noCanvas   bool
	origin     string
	cacheSize  int
)

var rootCmd = &cobra.Command{
	Use:   "geoplot [file...]",
	Short: "Plot Exhibit, GeoJSON, KML, CSV and WKT data on a terminal map",
	Long: `geoplot loads items from data files and plots them on a terminal map.

Points become markers colored, sized and iconed by the configured coders;
polygon and polyline properties become shapes. Items sharing a position
share one marker.

Examples:
  geoplot cafes.csv
  geoplot --config map.yaml
  geoplot --painter http://localhost:8082/painter places.json`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML view configuration")
	f.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	f.StringVar(&painterURL, "painter", "", "painter service prefix for marker images")
	f.BoolVar(&noCanvas, "no-canvas", false, "disable local marker drawing")
	f.StringVar(&origin, "origin", "", "origin icons must share to be drawn locally")
	f.IntVar(&cacheSize, "marker-cache", 0, "bound synthesized markers (0 keeps all)")
}

func run(cmd *cobra.Command, args []string) error {
	var w io.Writer = io.Discard
	if logFile != "" {
		fh, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer fh.Close()
		w = fh
	}
	log := logging.New(w, logLevel, "geoplot")

	cfg := config.Default()
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("painter") {
		cfg.Painter = painterURL
	}
	if flags.Changed("no-canvas") {
		enabled := !noCanvas
		cfg.Canvas = &enabled
	}
	if flags.Changed("origin") {
		cfg.Origin = origin
	}
	if flags.Changed("marker-cache") {
		cfg.MarkerCache = cacheSize
	}

	m, err := tui.New(tui.Options{Config: cfg, Log: log, Files: args})
	if err != nil {
		return err
	}
	defer m.Close()
	log.Info().Int("files", len(args)).Str("config", configPath).Msg("starting")
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
