package startup

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Version is empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("OS/Arch not populated")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HISTORY_DIR", t.TempDir())

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if !config.MetricsEnabled {
		t.Error("metrics disabled by default")
	}
	if config.FPS != 1 {
		t.Errorf("FPS = %d, want 1", config.FPS)
	}
	if config.TrimEnabled {
		t.Error("trim enabled without a master clip URL")
	}
	if config.HistoryPath != filepath.Join(config.HistoryDir, "generations.db") {
		t.Errorf("HistoryPath = %q", config.HistoryPath)
	}
	if config.HistoryRetention != 1000 {
		t.Errorf("HistoryRetention = %d, want 1000", config.HistoryRetention)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HISTORY_DIR", t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("STICKER_FPS", "2")
	t.Setenv("CHUNK_THRESHOLD", "300")
	t.Setenv("MASTER_CLIP_URL", "https://cdn.example.com/master.webm")
	t.Setenv("PREFERRED_ENCODER", "vp8")
	t.Setenv("HISTORY_RETENTION", "250")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Port != "9000" {
		t.Errorf("Port = %q, want 9000", config.Port)
	}
	if config.FPS != 2 {
		t.Errorf("FPS = %d, want 2", config.FPS)
	}
	if config.ChunkThreshold != 300 {
		t.Errorf("ChunkThreshold = %d, want 300", config.ChunkThreshold)
	}
	if !config.TrimEnabled {
		t.Error("trim not enabled despite master clip URL")
	}
	if config.PreferredStrategy != "vp8" {
		t.Errorf("PreferredStrategy = %q, want vp8", config.PreferredStrategy)
	}
	if config.HistoryRetention != 250 {
		t.Errorf("HistoryRetention = %d, want 250", config.HistoryRetention)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Setenv("HISTORY_DIR", t.TempDir())
	t.Setenv("STICKER_FPS", "not-a-number")
	t.Setenv("METRICS_ENABLED", "maybe")
	t.Setenv("TRIM_ENABLED", "true")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.FPS != 1 {
		t.Errorf("FPS = %d, want default 1", config.FPS)
	}
	if !config.MetricsEnabled {
		t.Error("invalid METRICS_ENABLED did not fall back to default")
	}
	// trim requested but no master URL
	if config.TrimEnabled {
		t.Error("trim enabled without a master clip URL")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/generate/{duration}", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
	router.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}

	found := false
	for _, route := range routes {
		if route.Path == "/api/generate/{duration}" && route.Method == http.MethodPost {
			found = true
		}
	}
	if !found {
		t.Error("generate route not reported")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("STARTUP_TEST_STR", "value")
	if got := getEnv("STARTUP_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("STARTUP_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv default = %q", got)
	}

	t.Setenv("STARTUP_TEST_INT", " 42 ")
	if got := getEnvInt("STARTUP_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvInt("STARTUP_TEST_MISSING", 7); got != 7 {
		t.Errorf("getEnvInt default = %d", got)
	}

	t.Setenv("STARTUP_TEST_BOOL", "true")
	if !getEnvBool("STARTUP_TEST_BOOL", false) {
		t.Error("getEnvBool = false, want true")
	}
}
