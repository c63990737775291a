package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kdpath/tracer/internal/geom"
)

// Config is the plain-text, line-delimited scene description read from an
// .rtc file: a comment line, mesh and output paths, recursion depth,
// resolution, and camera placement.
type Config struct {
	MeshPath   string // relative to the config file's directory
	OutputPath string
	RecLvl     int
	Width      int
	Height     int
	ViewPoint  geom.Vec3
	LookAt     geom.Vec3
	Up         geom.Vec3
	YView      float32

	dir string // the config file's directory, for resolving MeshPath
}

// ResolvedMeshPath returns MeshPath joined against the directory the
// config file was read from.
func (c *Config) ResolvedMeshPath() string {
	return filepath.Join(c.dir, c.MeshPath)
}

var defaultUp = geom.Vec3{X: 0, Y: 1, Z: 0}

const defaultYView = float32(1.0)

// ReadConfig parses the nine-line scene configuration format: a comment
// line, mesh path, output path, recursion level, "WIDTH HEIGHT",
// view-point, look-at, up (defaults to (0,1,0) if malformed), and yView
// (defaults to 1.0 if malformed). Trailing lines that fail to parse are
// warned about and skipped rather than treated as fatal.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open config: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	next := func(field string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("scene: reading %s: %w", field, err)
			}
			return "", fmt.Errorf("scene: missing %s line", field)
		}
		return sc.Text(), nil
	}

	if _, err := next("comment"); err != nil {
		return nil, err
	}

	meshPath, err := next("mesh path")
	if err != nil {
		return nil, err
	}

	outputPath, err := next("output path")
	if err != nil {
		return nil, err
	}

	recLine, err := next("recursion level")
	if err != nil {
		return nil, err
	}
	recLvl, err := strconv.Atoi(strings.TrimSpace(recLine))
	if err != nil {
		return nil, fmt.Errorf("scene: could not parse recursion level %q: %w", recLine, err)
	}

	resLine, err := next("resolution")
	if err != nil {
		return nil, err
	}
	var width, height int
	if n, _ := fmt.Sscanf(resLine, "%d %d", &width, &height); n < 2 {
		return nil, fmt.Errorf("scene: could not parse resolution %q", resLine)
	}

	viewLine, err := next("view point")
	if err != nil {
		return nil, err
	}
	viewPoint, err := parseVec3(viewLine)
	if err != nil {
		return nil, fmt.Errorf("scene: could not parse view point: %w", err)
	}

	lookLine, err := next("look at")
	if err != nil {
		return nil, err
	}
	lookAt, err := parseVec3(lookLine)
	if err != nil {
		return nil, fmt.Errorf("scene: could not parse look at: %w", err)
	}

	up := defaultUp
	if upLine, err := next("up"); err == nil {
		if v, perr := parseVec3(upLine); perr == nil {
			up = v
		}
	}

	yView := defaultYView
	if yLine, err := next("yView"); err == nil {
		if v, perr := strconv.ParseFloat(strings.TrimSpace(yLine), 32); perr == nil {
			yView = float32(v)
		}
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(os.Stderr, "scene: warning: skipping unparsable trailing line %q\n", line)
	}

	return &Config{
		MeshPath:   meshPath,
		OutputPath: outputPath,
		RecLvl:     recLvl,
		Width:      width,
		Height:     height,
		ViewPoint:  viewPoint,
		LookAt:     lookAt,
		Up:         up,
		YView:      yView,
		dir:        filepath.Dir(path),
	}, nil
}

func parseVec3(line string) (geom.Vec3, error) {
	var x, y, z float32
	if n, _ := fmt.Sscanf(line, "%f %f %f", &x, &y, &z); n < 3 {
		return geom.Vec3{}, fmt.Errorf("expected 3 floats, got %q", line)
	}
	return geom.Vec3{X: x, Y: y, Z: z}, nil
}

// WriteTo re-emits the configuration in its original nine-line layout,
// preceded by a "#" comment line, matching the format ReadConfig accepts.
func (c *Config) WriteTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "#\n%s\n%s\n%d\n%d %d\n%g %g %g\n%g %g %g\n%g %g %g\n%g",
		c.MeshPath, c.OutputPath, c.RecLvl, c.Width, c.Height,
		c.ViewPoint.X, c.ViewPoint.Y, c.ViewPoint.Z,
		c.LookAt.X, c.LookAt.Y, c.LookAt.Z,
		c.Up.X, c.Up.Y, c.Up.Z,
		c.YView,
	)
	return err
}
