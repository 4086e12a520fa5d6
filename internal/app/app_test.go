package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"MentionsScanner/internal/config"
	"MentionsScanner/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Episodes.Dir = t.TempDir()
	cfg.Recognizer.Driver = "none"
	return cfg
}

func writeEpisode(t *testing.T, dir string) {
	t.Helper()
	body := `[{"start": 4, "text": "this episode is brought to you by BetterHelp"},
	          {"start": 9, "text": "I keep a tin of nicotine pouches on the desk"}]`
	if err := os.WriteFile(filepath.Join(dir, "ep1.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write episode: %v", err)
	}
}

func TestNewWiresFileStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeEpisode(t, cfg.Episodes.Dir)

	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer application.Close()

	result, err := application.Pipeline().ProcessEpisode(context.Background(), "ep1")
	if err != nil {
		t.Fatalf("ProcessEpisode: %v", err)
	}
	if len(result.Products) != 1 || result.Products[0].T != 9 {
		t.Fatalf("unexpected products: %+v", result.Products)
	}
	if _, err := os.Stat(filepath.Join(cfg.Episodes.Dir, "ep1-parsed.json")); err != nil {
		t.Fatalf("result file missing: %v", err)
	}
}

func TestNewWiresSQLiteStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "file:" + filepath.Join(t.TempDir(), "results.db")
	writeEpisode(t, cfg.Episodes.Dir)

	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer application.Close()

	ctx := context.Background()
	if _, err := application.Pipeline().ProcessEpisode(ctx, "ep1"); err != nil {
		t.Fatalf("ProcessEpisode: %v", err)
	}
	results, err := application.Pipeline().Results(ctx)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 1 || results[0].EpisodeID != "ep1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if _, err := os.Stat(filepath.Join(cfg.Episodes.Dir, "ep1-parsed.json")); !os.IsNotExist(err) {
		t.Fatalf("sqlite storage must not write result files, stat err: %v", err)
	}
}

func TestNewUnknownSource(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Source.Name = "rss"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected unknown source error")
	}
}

func TestBuildRulesAppliesConfig(t *testing.T) {
	t.Parallel()

	rules, err := buildRules(config.RulesConfig{
		ExtraSkipBrands: []string{"Acme"},
		AdWindow:        3,
		SuppressAdReads: true,
	})
	if err != nil {
		t.Fatalf("buildRules: %v", err)
	}
	if !rules.IsSkipBrand("acme") || !rules.IsSkipBrand("BetterHelp") {
		t.Fatalf("skip brands not merged")
	}
	if rules.AdWindow() != 3 || !rules.SuppressAdReads() {
		t.Fatalf("window settings not applied: %d %v", rules.AdWindow(), rules.SuppressAdReads())
	}
}

func TestBuildRecognizer(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Recognizer
	for driver, wantNil := range map[string]bool{"http": false, "prose": false, "none": true} {
		cfg.Driver = driver
		rec, err := buildRecognizer(cfg)
		if err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
		if (rec == nil) != wantNil {
			t.Fatalf("%s: unexpected recognizer %T", driver, rec)
		}
	}

	cfg.Driver = "bogus"
	if _, err := buildRecognizer(cfg); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
