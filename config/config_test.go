package config_test

import (
	"os"
	"testing"

	"github.com/km-arc/ioc/config"
)

func TestLoad_UsesEnvironmentOverrides(t *testing.T) {
	t.Setenv("IOC_ROOT_TAG", "api")
	t.Setenv("IOC_DIAGNOSTICS", "true")
	t.Setenv("IOC_STRICT_SOURCES", "1")

	cfg := config.Load("testdata-does-not-exist.env")

	if cfg.RootTag != "api" {
		t.Errorf("RootTag: got %q, want %q", cfg.RootTag, "api")
	}
	if !cfg.Diagnostics {
		t.Error("Diagnostics: got false, want true")
	}
	if !cfg.StrictSources {
		t.Error("StrictSources: got false, want true")
	}
}

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	os.Unsetenv("IOC_ROOT_TAG")
	os.Unsetenv("IOC_DIAGNOSTICS")
	os.Unsetenv("IOC_STRICT_SOURCES")

	cfg := config.Load("testdata-does-not-exist.env")

	if cfg.RootTag != "" {
		t.Errorf("RootTag: got %q, want empty", cfg.RootTag)
	}
	if cfg.Diagnostics {
		t.Error("Diagnostics: got true, want false")
	}
	if cfg.StrictSources {
		t.Error("StrictSources: got true, want false")
	}
}

func TestGetBool_FallsBackOnUnparseableValue(t *testing.T) {
	t.Setenv("IOC_SOME_FLAG", "not-a-bool")
	if got := config.GetBool("IOC_SOME_FLAG", true); !got {
		t.Errorf("GetBool with unparseable value: got %v, want fallback true", got)
	}
}

func TestGet_ReturnsFallbackWhenUnset(t *testing.T) {
	os.Unsetenv("IOC_MISSING_KEY")
	if got := config.Get("IOC_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("Get: got %q, want %q", got, "fallback")
	}
}
