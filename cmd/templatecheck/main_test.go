package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"templatecheck/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, pretty, logLevel = "", false, ""

	// keep the real config.toml beside the test binary out of the way
	args = append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDetectCommand(t *testing.T) {
	path := writeFile(t, "my_report.csv", testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income", "Operating Expenses", "Gross Profit", "Revenue Trends"},
		[]string{"1", "2", "3", "4", "5"},
	))

	out, err := runCLI(t, "detect", path)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	var got struct {
		Type  string `json:"type"`
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if got.Type != "standard" || got.Stage != "content" {
		t.Fatalf("got %+v, want standard via content", got)
	}
}

func TestValidateCommand(t *testing.T) {
	valid := writeFile(t, "my_report.csv", testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income", "Operating Expenses", "Gross Profit", "Revenue Trends"},
		[]string{"1", "2", "3", "4", "5"},
	))
	if _, err := runCLI(t, "validate", "--template", "simplified", valid); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	invalid := writeFile(t, "partial.csv", testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income"},
		[]string{"1", "2"},
	))
	xlsxPath := filepath.Join(t.TempDir(), "report.xlsx")
	out, err := runCLI(t, "validate", "-t", "simplified", "--pretty", "--xlsx", xlsxPath, invalid)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("got %v, want errInvalid", err)
	}
	if st, err := os.Stat(xlsxPath); err != nil || st.Size() == 0 {
		t.Fatalf("xlsx report not written: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("missing required columns")) {
		t.Fatalf("report missing from output: %s", out)
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	if _, err := runCLI(t, "validate", filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTemplatesCommand(t *testing.T) {
	out, err := runCLI(t, "templates", "--structure")
	if err != nil {
		t.Fatalf("templates failed: %v", err)
	}
	var got []struct {
		ID        string `json:"id"`
		Structure struct {
			SheetNames []string `json:"sheetNames"`
		} `json:"structure"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got) != 3 || got[2].ID != "detailed" || len(got[2].Structure.SheetNames) != 4 {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, "init-config", path); err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if _, err := runCLI(t, "init-config", path); err == nil {
		t.Fatalf("expected error for existing file")
	}
	if _, err := runCLI(t, "init-config", "--force", path); err != nil {
		t.Fatalf("init-config --force failed: %v", err)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	good := testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income", "Operating Expenses", "Gross Profit", "Revenue Trends"},
		[]string{"1", "2", "3", "4", "5"},
	)
	for _, name := range []string{"jan.csv", "feb.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), good, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	out, err := runCLI(t, "batch", "-t", "simplified", dir)
	if err != nil {
		t.Fatalf("batch failed: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// start, 2x file_start, 2x file_done, done
	if len(lines) != 6 {
		t.Fatalf("got %d events, want 6:\n%s", len(lines), out)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("junk"), 0644); err != nil {
		t.Fatalf("write broken.xlsx: %v", err)
	}
	if _, err := runCLI(t, "batch", "-t", "simplified", dir); !errors.Is(err, errInvalid) {
		t.Fatalf("got %v, want errInvalid", err)
	}
}
