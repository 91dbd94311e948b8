package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTree = `{"type":"doc","content":[{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Motion"}]},{"type":"paragraph","content":[{"type":"text","text":"Relief is warranted."}]}]}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	e := &env{out: &out, in: strings.NewReader(stdin)}
	err := newApp(e).Run(context.Background(), append([]string{"lexdraft"}, args...))
	return out.String(), err
}

func TestRenderDOCXToFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "motion.json")
	if err := os.WriteFile(input, []byte(sampleTree), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.docx")

	if _, err := runCLI(t, "", "render", "--format", "docx", input, output); err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("output is not a zip package")
	}
}

func TestRenderHTMLFromStdin(t *testing.T) {
	out, err := runCLI(t, sampleTree, "render", "--format", "HTML", "--preset", "declaration", "--title", "Decl", "-", "-")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	for _, want := range []string{"<title>Decl</title>", "Relief is warranted."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := runCLI(t, "", "render"); err == nil || !strings.Contains(err.Error(), "no input") {
		t.Errorf("missing input err = %v", err)
	}
	if _, err := runCLI(t, sampleTree, "render", "--format", "odt", "-", "-"); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := runCLI(t, "", "render", filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected read error")
	}
}

func TestPresetsCommand(t *testing.T) {
	out, err := runCLI(t, "", "presets")
	if err != nil {
		t.Fatalf("presets error = %v", err)
	}
	for _, name := range []string{"court_brief", "cover_letter", "declaration"} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing preset %q", name)
		}
	}
	if !strings.Contains(out, "Times New Roman 12pt") {
		t.Errorf("output missing font column:\n%s", out)
	}
}
