// Package startup owns process configuration and the structured boot
// log: environment loading, directory validation, route listing and
// the startup/shutdown banners.
package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/generator"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/trimmer"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all service configuration.
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	HistoryDir       string
	HistoryPath      string
	HistoryRetention int

	MasterClipURL string
	TrimEnabled   bool

	FPS               int
	ChunkThreshold    int
	MaxBlobBytes      int64
	PreferredStrategy string
	MaxConcurrent     int
}

// LoadConfig loads configuration from the environment (and an optional
// .env file) and validates the directories the service needs.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to load .env file: %v", err)
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", false),
		HistoryDir:        getEnv("HISTORY_DIR", "/data"),
		HistoryRetention:  getEnvInt("HISTORY_RETENTION", 1000),
		MasterClipURL:     getEnv("MASTER_CLIP_URL", ""),
		FPS:               getEnvInt("STICKER_FPS", 1),
		ChunkThreshold:    getEnvInt("CHUNK_THRESHOLD", generator.DefaultChunkThreshold),
		MaxBlobBytes:      int64(getEnvInt("MAX_BLOB_BYTES", 256<<10)),
		PreferredStrategy: getEnv("PREFERRED_ENCODER", ""),
		MaxConcurrent:     getEnvInt("MAX_CONCURRENT_GENERATIONS", 0),
	}
	config.TrimEnabled = getEnvBool("TRIM_ENABLED", config.MasterClipURL != "")

	logging.Info("  PORT:                       %s", config.Port)
	logging.Info("  METRICS_PORT:               %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:            %v", config.MetricsEnabled)
	logging.Info("  HISTORY_DIR:                %s", config.HistoryDir)
	logging.Info("  HISTORY_RETENTION:          %s", retentionString(config.HistoryRetention))
	logging.Info("  MASTER_CLIP_URL:            %s", orUnset(config.MasterClipURL))
	logging.Info("  TRIM_ENABLED:               %v", config.TrimEnabled)
	logging.Info("  STICKER_FPS:                %d", config.FPS)
	logging.Info("  CHUNK_THRESHOLD:            %d", config.ChunkThreshold)
	logging.Info("  MAX_BLOB_BYTES:             %d", config.MaxBlobBytes)
	logging.Info("  PREFERRED_ENCODER:          %s", orUnset(config.PreferredStrategy))
	logging.Info("  LOG_LEVEL:                  %s", logging.GetLevel())

	if config.FPS < 1 {
		logging.Warn("  Invalid STICKER_FPS, using default: 1")
		config.FPS = 1
	}
	if config.TrimEnabled && config.MasterClipURL == "" {
		logging.Warn("  TRIM_ENABLED set without MASTER_CLIP_URL, disabling trim path")
		config.TrimEnabled = false
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	historyDir, err := filepath.Abs(config.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history directory path: %w", err)
	}
	config.HistoryDir = historyDir
	config.HistoryPath = filepath.Join(historyDir, "generations.db")
	logging.Info("  History directory (absolute): %s", historyDir)

	if err := ensureDirectory(historyDir); err != nil {
		return nil, fmt.Errorf("history directory error: %w", err)
	}
	if err := testWriteAccess(historyDir); err != nil {
		return nil, fmt.Errorf("history directory is not writable: %w", err)
	}
	logging.Info("  [OK] History directory is writable")

	return config, nil
}

// LogEncoderInit reports the probed encoder capabilities.
func LogEncoderInit(caps encoder.Capabilities) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if caps.FFmpegPath == "" {
		logging.Warn("  ffmpeg not found; sticker encoding will fail until it is installed")
		return
	}

	logging.Info("  FFmpeg path: %s", caps.FFmpegPath)
	for _, name := range []string{"libvpx-vp9", "libvpx", "qtrle"} {
		logging.Info("    %-12s %s", name, supportedString(caps.Has(name)))
	}
}

// LogTrimmerInit reports the master-clip trim path state.
func LogTrimmerInit(enabled bool, masterURL string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRIMMER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if !enabled {
		logging.Info("  Trim path disabled; all requests will render")
		return
	}
	logging.Info("  Master clip: %s", masterURL)
	logging.Info("  Trimmable range: 1-%d seconds", trimmer.MaxTrimDuration)
}

// LogHistoryInit logs history store initialization.
func LogHistoryInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HISTORY INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] History store ready in %v", duration)
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds what the startup banner needs.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the endpoint summary once everything is up.
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application: http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step.
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
  _____ _                      ____  _   _      _
 |_   _(_)_ __ ___   ___ _ __ / ___|| |_(_) ___| | _____ _ __ ___
   | | | | '_ ' _ \ / _ \ '__|\___ \| __| |/ __| |/ / _ \ '__/ __|
   | | | | | | | | |  __/ |    ___) | |_| | (__|   <  __/ |  \__ \
   |_| |_|_| |_| |_|\___|_|   |____/ \__|_|\___|_|\_\___|_|  |___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func supportedString(ok bool) string {
	if ok {
		return "SUPPORTED"
	}
	return "unavailable"
}

func retentionString(keep int) string {
	if keep <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(keep)
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
