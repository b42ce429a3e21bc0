package compose

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RunMode selects how a Shell's frame loop schedules redraws (SPEC_FULL
// §C "app-shell launcher variants", generalizing the original's per-
// platform desktop/web/android bootstraps into one mode switch): a
// continuous shell builds a new scene on every Tick; a reactive shell
// builds one only when the Tick recomposed, the layout root was marked for
// measure or placement, or no scene exists yet.
type RunMode int

const (
	RunContinuous RunMode = iota
	RunReactive
)

// ShellConfig is the app shell's configuration surface (spec §6
// "Configuration surface"), loadable from YAML (SPEC_FULL §A.3). The zero
// value is a valid in-process default.
type ShellConfig struct {
	ViewportWidth  float64      `yaml:"viewportWidth"`
	ViewportHeight float64      `yaml:"viewportHeight"`
	Density        float64      `yaml:"density"`
	ClearColor     Color        `yaml:"clearColor"`
	ClipToViewport bool         `yaml:"clipToViewport"`
	RunMode        RunMode      `yaml:"runMode"`
	SubcomposeLRU  int          `yaml:"subcomposeLru"`
	Log            LogConfig    `yaml:"log"`
	Renderer       RendererCaps `yaml:"-"`
}

// LoadConfig parses a YAML document into a ShellConfig (spec §6, SPEC_FULL
// §A.3).
func LoadConfig(data []byte) (ShellConfig, error) {
	var cfg ShellConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ShellConfig{}, err
	}
	if cfg.Density == 0 {
		cfg.Density = 1
	}
	return cfg, nil
}

// LoadConfigFile reads path and parses it as a ShellConfig.
func LoadConfigFile(path string) (ShellConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ShellConfig{}, err
	}
	return LoadConfig(data)
}

// AppShell drives the per-frame sequence of spec §4.10 through Tick:
// recompose pending scopes, measure and place the tree, and rebuild the
// paint scene (every Tick in RunContinuous, only when something changed in
// RunReactive), handing it to Input for hit testing. Tick does not run
// frame-clock callbacks or async continuations, does not run pointer
// repasses, and does not submit the scene to a Renderer; the scene is
// available from LastScene.
type AppShell struct {
	Config ShellConfig
	Logger *zap.Logger

	Composer   *Composer
	Recomposer *Recomposer
	Tree       *LayoutTree
	Input      *InputDispatcher
	Effects    *EffectRunner

	lastScene    *Scene
	submittedAny bool
}

// NewAppShell wires a composer, recomposer, layout tree, and input
// dispatcher into one frame loop. A nil logger discards diagnostics
// (matches zap.NewNop's convention, per SPEC_FULL §A.1).
func NewAppShell(cfg ShellConfig, composer *Composer, rec *Recomposer, tree *LayoutTree, input *InputDispatcher, effects *EffectRunner, logger *zap.Logger) *AppShell {
	if logger == nil {
		logger = NopLogger()
	}
	return &AppShell{Config: cfg, Logger: logger, Composer: composer, Recomposer: rec, Tree: tree, Input: input, Effects: effects}
}

// Tick runs one pass of the frame loop for a FrameClock.tick(nowNs) call
// (spec §6, §4.10). It reports whether it built a new scene.
func (s *AppShell) Tick(nowNs int64) bool {
	pending := s.Recomposer.PendingCount() > 0
	if pending {
		_, err := s.Recomposer.ProcessInvalidScopes()
		if err != nil {
			s.Logger.Warn("recompose pass returned an error", zap.Error(err))
		}
	}

	root := s.Tree.Node(s.Tree.Root())
	layoutDirty := root != nil && (root.dirty.needsMeasure || root.dirty.needsPlace)
	s.Tree.MeasureAndPlace(s.Config.ViewportWidth, s.Config.ViewportHeight)

	shouldBuildScene := s.Config.RunMode == RunContinuous || pending || layoutDirty || s.lastScene == nil
	if !shouldBuildScene {
		return false
	}

	scene := BuildScene(s.Tree)
	s.lastScene = scene
	s.Input.SetScene(scene)
	s.submittedAny = true
	return true
}

// LastScene returns the most recently built scene, or nil before the first
// Tick.
func (s *AppShell) LastScene() *Scene { return s.lastScene }

// HandleViewportChange applies a platform viewport/density change, falling
// back to a full-tree invalidation per spec §4.6 ("a global invalidation
// path is available ... explicitly the fallback").
func (s *AppShell) HandleViewportChange(change ViewportChange) {
	s.Config.ViewportWidth = change.Width
	s.Config.ViewportHeight = change.Height
	if change.Density != 0 {
		s.Config.Density = change.Density
	}
	s.Tree.InvalidateAll()
}

// HandlePointerEvent forwards a platform pointer event to the input
// dispatcher, logging any stale hit-path entries it surfaces (spec §7
// HitPathStale — benign).
func (s *AppShell) HandlePointerEvent(event PointerEvent) {
	s.Input.OnHitPathStale = func(pointerId int, id NodeId) {
		s.Logger.Debug("hit path entry stale", zap.Int("pointerId", pointerId), zap.Uint32("nodeId", uint32(id)))
	}
	s.Input.Dispatch(event)
}
