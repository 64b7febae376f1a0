package pipelines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/7ipolito/goals-vision/internal/logging"
)

const maxStderrBytes = 8 * 1024

// poseDeps are the python modules the pose tracker imports.
var poseDeps = []string{"cv2", "mediapipe"}

// outputFields are the metadata keys every pipeline output must carry.
var outputFields = []string{"schema_version", "pipeline_version", "model_version"}

// Runner is the contract between the agent and the python pose package.
type Runner interface {
	// RunDoctor runs `doctor --json` and reports which dependencies import.
	RunDoctor(ctx context.Context) (*Capabilities, error)

	// RunPose writes the pose track of videoPath to outPath.
	RunPose(ctx context.Context, videoPath, outPath string) (RunResult, error)

	ValidateOutput(path string) (*PipelineOutput, error)

	// ArtifactsDir is where per-video outputs are written.
	ArtifactsDir() string
}

type Config struct {
	PythonPath    string // empty means python3 or python from PATH
	ModuleName    string
	ArtifactsBase string
	DoctorTimeout time.Duration
	PoseTimeout   time.Duration
	PoseFPS       float64 // 0 samples every frame
	Logger        *slog.Logger
	DebugPaths    bool // log full paths instead of sanitised ones
}

// DefaultConfig places artifacts under dataDir and auto-detects python.
func DefaultConfig(dataDir string, logger *slog.Logger) Config {
	return Config{
		ModuleName:    "goals_pose",
		ArtifactsBase: filepath.Join(dataDir, "artifacts"),
		DoctorTimeout: 30 * time.Second,
		PoseTimeout:   10 * time.Minute,
		Logger:        logger,
	}
}

// SubprocessRunner runs the pose CLI as `python -m <module> ...`.
type SubprocessRunner struct {
	cfg    Config
	python string
}

// NewRunner resolves the python binary and prepares the artifacts directory.
func NewRunner(cfg Config) (*SubprocessRunner, error) {
	python, err := resolvePython(cfg.PythonPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate python: %w", err)
	}
	if err := os.MkdirAll(cfg.ArtifactsBase, 0755); err != nil {
		return nil, fmt.Errorf("cannot create artifacts dir: %w", err)
	}

	r := &SubprocessRunner{cfg: cfg, python: python}
	cfg.Logger.Info("pose runner ready",
		"python", r.safePath(python),
		"module", cfg.ModuleName,
		"artifacts_dir", r.safePath(cfg.ArtifactsBase),
	)
	return r, nil
}

func (r *SubprocessRunner) ArtifactsDir() string {
	return r.cfg.ArtifactsBase
}

// RunDoctor asks the python package which of its dependencies import.
func (r *SubprocessRunner) RunDoctor(ctx context.Context) (*Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.DoctorTimeout)
	defer cancel()

	outPath := filepath.Join(r.cfg.ArtifactsBase, ".doctor.json")
	res := r.run(ctx, outPath, "doctor", "--json", "--out", outPath)
	if !res.IsSuccess() {
		return nil, fmt.Errorf("doctor exited %d: %s", res.ExitCode, truncate(res.StderrTail, 512))
	}

	caps := &Capabilities{}
	if err := readJSON(outPath, caps); err != nil {
		return nil, fmt.Errorf("doctor output: %w", err)
	}

	for _, dep := range poseDeps {
		if !isAvailable(caps.Dependencies, dep) {
			caps.Missing = append(caps.Missing, dep)
		}
	}
	caps.HasPose = len(caps.Missing) == 0
	caps.HasVideo = isAvailable(caps.Executables, "ffmpeg")
	caps.ProbedAt = time.Now()

	r.cfg.Logger.Info("doctor probe complete",
		"pose", caps.HasPose,
		"video", caps.HasVideo,
		"missing", caps.Missing,
		"deps_available", caps.Summary.Available,
		"deps_total", caps.Summary.Total,
	)
	return caps, nil
}

// RunPose tracks the person in videoPath and writes the pose track to outPath.
// A non-zero exit is reported through RunResult; only a timeout is an error.
func (r *SubprocessRunner) RunPose(ctx context.Context, videoPath, outPath string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.PoseTimeout)
	defer cancel()

	args := []string{"pose", "track", "--video", videoPath, "--out", outPath}
	if r.cfg.PoseFPS > 0 {
		args = append(args, "--fps", strconv.FormatFloat(r.cfg.PoseFPS, 'f', -1, 64))
	}

	res := r.run(ctx, outPath, args...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("pose pipeline timed out after %s", r.cfg.PoseTimeout)
	}
	return res, nil
}

// ValidateOutput checks that a pipeline output file names its schema,
// pipeline and model versions.
func (r *SubprocessRunner) ValidateOutput(path string) (*PipelineOutput, error) {
	var raw map[string]json.RawMessage
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("output %s: %w", r.safePath(path), err)
	}

	var out PipelineOutput
	var missing []string
	dst := map[string]*string{
		"schema_version":   &out.SchemaVersion,
		"pipeline_version": &out.PipelineVersion,
		"model_version":    &out.ModelVersion,
	}
	for _, field := range outputFields {
		if v, ok := raw[field]; ok {
			if err := json.Unmarshal(v, dst[field]); err != nil {
				return nil, fmt.Errorf("pipeline output field %s: %w", field, err)
			}
		}
		if *dst[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &out, fmt.Errorf("pipeline output missing required fields: %s", strings.Join(missing, ", "))
	}
	return &out, nil
}

// run executes one CLI command. Any previous file at outPath is removed first
// so a failed run never leaves an older output behind.
func (r *SubprocessRunner) run(ctx context.Context, outPath string, args ...string) RunResult {
	start := time.Now()
	fail := func(err error) RunResult {
		r.cfg.Logger.Error("cannot prepare pipeline output", "error", err)
		return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
	}

	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fail(err)
		}
		if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fail(err)
		}
	}

	argv := append([]string{"-m", r.cfg.ModuleName}, args...)
	cmd := exec.CommandContext(ctx, r.python, argv...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stdout = io.Discard
	stderr := &tailBuffer{limit: maxStderrBytes}
	cmd.Stderr = stderr

	r.cfg.Logger.Debug("executing pipeline command", "command", args[0])

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	res := RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderr.String(),
		Duration:   time.Since(start),
	}
	if res.IsSuccess() {
		r.cfg.Logger.Info("pipeline command succeeded",
			"command", args[0],
			"duration_ms", res.Duration.Milliseconds(),
			"output", r.safePath(outPath),
		)
	} else {
		r.cfg.Logger.Warn("pipeline command failed",
			"command", args[0],
			"exit_code", exitCode,
			"duration_ms", res.Duration.Milliseconds(),
			"stderr_tail", truncate(res.StderrTail, 512),
		)
	}
	return res
}

// safePath hides the user's home directory and, outside it, everything but
// the file name.
func (r *SubprocessRunner) safePath(path string) string {
	if r.cfg.DebugPaths {
		return path
	}
	if sanitized := logging.SanitizePath(path); sanitized != path {
		return sanitized
	}
	return filepath.Base(path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func resolvePython(preferred string) (string, error) {
	candidates := []string{"python3", "python"}
	if preferred != "" {
		candidates = []string{preferred}
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	if preferred != "" {
		return "", fmt.Errorf("configured python %q not found", preferred)
	}
	return "", errors.New("no python binary found on PATH (tried python3, python)")
}

func isAvailable(deps map[string]DepInfo, name string) bool {
	return deps[name].Available
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
