package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdpath/tracer/internal/fingerprint"
	"github.com/kdpath/tracer/internal/hasher"
	"github.com/kdpath/tracer/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Check a manifest's referenced output and fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := manifest.ReadJSON(manifestPath)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	errs := validateManifest(m)
	if len(errs) == 0 {
		fmt.Println("  valid: output present, fingerprint matches")
		return nil
	}

	fmt.Printf("  %d problem(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    - %s\n", e)
	}
	return fmt.Errorf("validation failed with %d problem(s)", len(errs))
}

func validateManifest(m *manifest.Manifest) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	if _, err := os.Stat(m.Scene.OutputPath); err != nil {
		errs = append(errs, fmt.Sprintf("output file not found: %s", m.Scene.OutputPath))
		return errs
	}

	if m.Scene.OutputHash != "" {
		got, err := hasher.ContentHashFile(m.Scene.OutputPath, 16)
		if err != nil {
			errs = append(errs, fmt.Sprintf("hash output: %v", err))
		} else if got != m.Scene.OutputHash {
			errs = append(errs, fmt.Sprintf("output hash mismatch: manifest=%s, recomputed=%s", m.Scene.OutputHash, got))
		}
	}

	if m.Fingerprint == "" {
		return errs
	}

	previewPath := strings.TrimSuffix(m.Scene.OutputPath, filepath.Ext(m.Scene.OutputPath)) + ".preview.png"
	f, err := os.Open(previewPath)
	if err != nil {
		errs = append(errs, fmt.Sprintf("no preview at %s to re-check fingerprint against (re-render with --preview)", previewPath))
		return errs
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		errs = append(errs, fmt.Sprintf("decode preview %s: %v", previewPath, err))
		return errs
	}

	got := fmt.Sprintf("%x", fingerprint.Compute(img))
	if got != m.Fingerprint {
		errs = append(errs, fmt.Sprintf("fingerprint mismatch: manifest=%s, recomputed=%s", m.Fingerprint, got))
	}

	return errs
}
