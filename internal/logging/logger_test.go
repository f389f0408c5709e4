package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState() {
	CloseAll()
	logsDir = ""
	workspace = ""
	configLoaded = false
	config = loggingConfig{}
}

// TestAllCategoriesLog tests that all categories create log files when
// debug_mode is true.
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()

	configDir := filepath.Join(tempDir, ".ackulator")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configContent := `logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    session: true
    kernel: true
    units: true
    laws: true
    script: true
    runner: true
    performance: true
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer resetState()

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategorySession,
		CategoryKernel,
		CategoryUnits,
		CategoryLaws,
		CategoryScript,
		CategoryRunner,
		CategoryPerformance,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}

		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	CloseAll()

	// Each category should have produced a dated log file with all four
	// levels in it.
	logsPath := filepath.Join(configDir, "logs")
	for _, cat := range categories {
		matches, err := filepath.Glob(filepath.Join(logsPath, "*_"+string(cat)+".log"))
		if err != nil || len(matches) != 1 {
			t.Fatalf("Expected one log file for %s, got %v (err %v)", cat, matches, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("Failed to read log for %s: %v", cat, err)
		}
		content := string(data)
		for _, level := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"} {
			if !strings.Contains(content, level) {
				t.Errorf("Log for %s missing %s entries", cat, level)
			}
		}
	}
}

// TestNoLoggingWithoutDebugMode verifies production mode writes nothing.
func TestNoLoggingWithoutDebugMode(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer resetState()

	if IsDebugMode() {
		t.Error("Expected debug mode off with no config")
	}

	Session("this should go nowhere")
	Kernel("and so should this")

	logsPath := filepath.Join(tempDir, ".ackulator", "logs")
	if _, err := os.Stat(logsPath); !os.IsNotExist(err) {
		t.Errorf("Logs directory should not exist in production mode, stat err = %v", err)
	}
}

// TestCategoryFilter verifies a disabled category yields a no-op logger.
func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()

	configDir := filepath.Join(tempDir, ".ackulator")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configContent := `logging:
  level: debug
  debug_mode: true
  categories:
    session: true
    kernel: false
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatal(err)
	}
	defer resetState()

	if !IsCategoryEnabled(CategorySession) {
		t.Error("session category should be enabled")
	}
	if IsCategoryEnabled(CategoryKernel) {
		t.Error("kernel category should be disabled")
	}

	Kernel("filtered out")
	CloseAll()

	matches, _ := filepath.Glob(filepath.Join(configDir, "logs", "*_kernel.log"))
	if len(matches) != 0 {
		t.Errorf("Disabled category produced log files: %v", matches)
	}
}
