package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.rtc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestReadConfigWellFormed(t *testing.T) {
	content := "# a scene\n" +
		"mesh.obj\n" +
		"out.exr\n" +
		"4\n" +
		"640 480\n" +
		"0 0 5\n" +
		"0 0 0\n" +
		"0 1 0\n" +
		"1.0\n"
	path := writeTemp(t, content)

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.MeshPath != "mesh.obj" || cfg.OutputPath != "out.exr" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.RecLvl != 4 || cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("unexpected scalars: %+v", cfg)
	}
	if cfg.ViewPoint.Z != 5 {
		t.Errorf("unexpected view point: %+v", cfg.ViewPoint)
	}
	if cfg.YView != 1.0 {
		t.Errorf("unexpected yView: %v", cfg.YView)
	}
}

func TestReadConfigMalformedUpFallsBackToDefault(t *testing.T) {
	content := "#\n" +
		"m.obj\nout.exr\n2\n320 240\n0 0 1\n0 0 0\n" +
		"not a vector\n" +
		"1.0\n"
	path := writeTemp(t, content)

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Up != defaultUp {
		t.Errorf("Up = %+v, want default %+v", cfg.Up, defaultUp)
	}
}

func TestReadConfigMalformedYViewFallsBackToDefault(t *testing.T) {
	content := "#\n" +
		"m.obj\nout.exr\n2\n320 240\n0 0 1\n0 0 0\n0 1 0\n" +
		"not-a-float\n"
	path := writeTemp(t, content)

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.YView != defaultYView {
		t.Errorf("YView = %v, want default %v", cfg.YView, defaultYView)
	}
}

func TestReadConfigUnparsableRecursionLevelIsFatal(t *testing.T) {
	content := "#\nm.obj\nout.exr\nnot-an-int\n320 240\n0 0 1\n0 0 0\n"
	path := writeTemp(t, content)

	if _, err := ReadConfig(path); err == nil {
		t.Fatal("expected error for unparsable recursion level")
	}
}

func TestResolvedMeshPathJoinsConfigDir(t *testing.T) {
	content := "#\nmeshes/box.obj\nout.exr\n1\n16 16\n0 0 1\n0 0 0\n0 1 0\n1.0\n"
	path := writeTemp(t, content)
	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "meshes/box.obj")
	if got := cfg.ResolvedMeshPath(); got != want {
		t.Errorf("ResolvedMeshPath = %q, want %q", got, want)
	}
}

func TestWriteToRoundTrips(t *testing.T) {
	content := "#\nm.obj\nout.exr\n3\n100 200\n1 2 3\n4 5 6\n0 1 0\n1.5\n"
	path := writeTemp(t, content)
	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	var buf bytes.Buffer
	if err := cfg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "roundtrip.rtc")
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write roundtrip file: %v", err)
	}
	cfg2, err := ReadConfig(outPath)
	if err != nil {
		t.Fatalf("ReadConfig roundtrip: %v", err)
	}
	if cfg2.RecLvl != cfg.RecLvl || cfg2.Width != cfg.Width || cfg2.Height != cfg.Height {
		t.Errorf("roundtrip mismatch: %+v vs %+v", cfg2, cfg)
	}
}
