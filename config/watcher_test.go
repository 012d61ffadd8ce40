package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/touchsense/config"
	"go.viam.com/touchsense/logging"
)

func writeConfig(t *testing.T, path, name string) {
	t.Helper()
	data := []byte(`{"components": [{"name": "` + name + `", "api": "rdk:component:input_controller",
		"model": "mpr121", "attributes": {"i2c_bus": "1"}}]}`)
	test.That(t, os.WriteFile(path, data, 0o600), test.ShouldBeNil)
}

func nextConfig(t *testing.T, w config.Watcher) *config.Config {
	t.Helper()
	select {
	case cfg := <-w.Config():
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config")
		return nil
	}
}

func TestWatcher(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "machine.json")
	writeConfig(t, path, "first")

	w, err := config.NewWatcher(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	writeConfig(t, path, "second")
	cfg := nextConfig(t, w)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.FindComponent("second"), test.ShouldNotBeNil)

	// invalid configs are skipped
	test.That(t, os.WriteFile(path, []byte(`{"components": [`), 0o600), test.ShouldBeNil)
	time.Sleep(300 * time.Millisecond)
	writeConfig(t, path, "third")
	cfg = nextConfig(t, w)
	test.That(t, cfg.FindComponent("third"), test.ShouldNotBeNil)

	// other files in the directory are ignored
	test.That(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("{}"), 0o600), test.ShouldBeNil)
	select {
	case cfg := <-w.Config():
		t.Fatalf("unexpected config %v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherMissingFile(t *testing.T) {
	_, err := config.NewWatcher(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
