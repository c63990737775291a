package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdpath/tracer/internal/fingerprint"
	"github.com/kdpath/tracer/internal/hasher"
	"github.com/kdpath/tracer/internal/imageio"
	"github.com/kdpath/tracer/internal/integrator"
	"github.com/kdpath/tracer/internal/kdtree"
	"github.com/kdpath/tracer/internal/manifest"
	"github.com/kdpath/tracer/internal/material"
	"github.com/kdpath/tracer/internal/profile"
	"github.com/kdpath/tracer/internal/render"
	"github.com/kdpath/tracer/internal/sampler"
	"github.com/kdpath/tracer/internal/scene"
)

// defaultSamples is the per-pixel sample count used when neither --samples
// nor a profile narrows it down.
const defaultSamples = 256

// previewMaxWidth caps the LDR preview/fingerprint image's width so a
// large render doesn't produce an oversized PNG companion.
const previewMaxWidth = 960

var (
	renderThreads int
	renderSamples int
	renderPreview bool
	renderProfile string
	renderBSDF    string
)

var renderCmd = &cobra.Command{
	Use:   "render <rtc_file>",
	Short: "Render a scene described by an .rtc configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().IntVarP(&renderThreads, "threads", "n", 0, "worker goroutines (0 = NumCPU)")
	renderCmd.Flags().IntVar(&renderSamples, "samples", 0, "samples per pixel (0 = profile/default)")
	renderCmd.Flags().BoolVar(&renderPreview, "preview", false, "write a tone-mapped PNG preview alongside the EXR output")
	renderCmd.Flags().StringVar(&renderProfile, "profile", "final", "render quality profile: draft, preview, final")
	renderCmd.Flags().StringVar(&renderBSDF, "bsdf", "cook-torrance", "shading model: cook-torrance, phong")
	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, args []string) error {
	configPath := args[0]
	start := time.Now()

	cfg, err := scene.ReadConfig(configPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	Infof("config:   %s", configPath)
	Infof("mesh:     %s", cfg.ResolvedMeshPath())
	Infof("output:   %s", cfg.OutputPath)

	mesh, err := scene.LoadGLTF(cfg.ResolvedMeshPath())
	if err != nil {
		return fmt.Errorf("render: load mesh: %w", err)
	}

	world := scene.NewWorld(mesh, kdtree.DefaultParams())
	treeStats := world.Tree.Stats()
	Infof("kd-tree:  %d nodes, %d leaves, depth %d, mean %.2f tris/leaf",
		treeStats.NodeCount, treeStats.LeafCount, treeStats.MaxDepth, treeStats.MeanLeafTris)

	prof := profile.Get(renderProfile)
	nSamples := prof.ResolveSamples(defaultSamples)
	if renderSamples > 0 {
		nSamples = renderSamples
	}
	recLvl := prof.ResolveRecLvl(cfg.RecLvl)

	bsdf, err := resolveBSDF(renderBSDF)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	camera := render.NewCamera(cfg.ViewPoint, cfg.LookAt, cfg.Up, cfg.Width, cfg.Height, cfg.YView)

	Infof("render:   %dx%d, %d samples, rec level %d, profile %q", cfg.Width, cfg.Height, nSamples, recLvl, prof.Name)

	result, err := render.Render(context.Background(), render.Config{
		Camera:      camera,
		World:       world,
		NSamples:    nSamples,
		ConcThreads: renderThreads,
		RecLvl:      recLvl,
		BRDF:        bsdf,
		SamplerFor:  samplerFor,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	outPath := resolveOutputPath(configPath, cfg.OutputPath)
	if err := imageio.WriteHalfEXR(outPath, cfg.Width, cfg.Height, result.Pixels.Raw()); err != nil {
		return fmt.Errorf("render: write output: %w", err)
	}

	outHash, err := hasher.ContentHashFile(outPath, 16)
	if err != nil {
		return fmt.Errorf("render: hash output: %w", err)
	}

	m := manifest.New()
	m.Scene = manifest.SceneInfo{
		ConfigPath: configPath,
		MeshPath:   cfg.ResolvedMeshPath(),
		OutputPath: outPath,
		OutputHash: outHash,
		Width:      cfg.Width,
		Height:     cfg.Height,
		TriCount:   len(mesh.Tris),
		LightCount: len(world.Lights.Indices),
	}
	workers := renderThreads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	m.Render = manifest.RenderInfo{
		NSamples:    nSamples,
		RecLvl:      recLvl,
		Workers:     workers,
		Profile:     prof.Name,
		ElapsedSecs: result.Elapsed.Seconds(),
	}
	m.KDTree = manifest.KDTreeInfo{
		NodeCount:    treeStats.NodeCount,
		LeafCount:    treeStats.LeafCount,
		MaxDepth:     treeStats.MaxDepth,
		MeanLeafTris: treeStats.MeanLeafTris,
	}

	preview := imageio.ToneMapImage(cfg.Width, cfg.Height, result.Pixels.Raw(), previewMaxWidth)
	m.Fingerprint = fmt.Sprintf("%x", fingerprint.Compute(preview))

	if renderPreview {
		previewPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".preview.png"
		if err := imageio.WritePreviewPNG(previewPath, cfg.Width, cfg.Height, result.Pixels.Raw(), previewMaxWidth); err != nil {
			return fmt.Errorf("render: write preview: %w", err)
		}
		Infof("preview:  %s", previewPath)
	}

	manifestPath := outPath + ".manifest.json"
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("render: write manifest: %w", err)
	}

	fmt.Printf("rendered %s (%dx%d, %d samples) in %s\n", outPath, cfg.Width, cfg.Height, nSamples, time.Since(start).Round(time.Millisecond))
	fmt.Printf("manifest: %s\n", manifestPath)
	return nil
}

func resolveOutputPath(configPath, outputPath string) string {
	if filepath.IsAbs(outputPath) {
		return outputPath
	}
	return filepath.Join(filepath.Dir(configPath), outputPath)
}

func resolveBSDF(name string) (integrator.BSDF, error) {
	switch name {
	case "cook-torrance", "":
		return material.CookTorrance, nil
	case "phong":
		return material.ModifiedPhong, nil
	default:
		return nil, fmt.Errorf("unknown bsdf %q (want cook-torrance or phong)", name)
	}
}

// samplerFor selects the indirect-bounce hemisphere sampler for a
// material: Beckmann for anything with a meaningful specular component,
// Cosine (importance-sampling the Lambertian lobe) otherwise.
func samplerFor(mat material.Material) sampler.Sampler {
	if material.Avg3(mat.Ks) > 1e-4 {
		return sampler.Beckmann{Roughness: mat.Roughness}
	}
	return sampler.Cosine{}
}
