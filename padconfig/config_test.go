package padconfig

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:8000/predict/", cfg.Endpoint)
	assert.Equal(t, 280, cfg.Canvas.Width)
	assert.Equal(t, 15.0, cfg.Canvas.StrokeWidth)
	assert.Equal(t, Duration(3*time.Second), cfg.Result.ErrorTimeout)
	assert.Zero(t, cfg.Submit.Timeout)
}

func TestLoadNonexistent(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvLogLevel, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFormats(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	files := map[string]string{
		"pad.toml": `
endpoint = "http://10.0.0.2:9000/predict/"
[canvas]
stroke_width = 20
[submit]
timeout = "2s"
[result]
error_timeout = "500ms"
`,
		"pad.yaml": `
endpoint: http://10.0.0.2:9000/predict/
canvas:
  stroke_width: 20
submit:
  timeout: 2s
result:
  error_timeout: 500ms
`,
		"pad.json": `{"endpoint": "http://10.0.0.2:9000/predict/",
			"canvas": {"stroke_width": 20},
			"submit": {"timeout": "2s"},
			"result": {"error_timeout": "500ms"}}`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, dir, name, content))
			require.NoError(t, err)
			assert.Equal(t, "http://10.0.0.2:9000/predict/", cfg.Endpoint)
			assert.Equal(t, 20.0, cfg.Canvas.StrokeWidth)
			assert.Equal(t, 280, cfg.Canvas.Width, "unset fields keep their default")
			assert.Equal(t, Duration(2*time.Second), cfg.Submit.Timeout)
			assert.Equal(t, Duration(500*time.Millisecond), cfg.Result.ErrorTimeout)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "bad.toml", "endpoint = "))
	assert.Error(t, err)
	_, err = Load(writeFile(t, dir, "bad.json", "{"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvEndpoint, "http://classifier.local/predict/")
	t.Setenv(EnvLogLevel, "debug")
	path := writeFile(t, t.TempDir(), "pad.toml", "[submit]\ndiscover = true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://classifier.local/predict/", cfg.Endpoint)
	assert.False(t, cfg.Submit.Discover, "an explicit endpoint disables discovery")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint = "localhost:8000"
	cfg.Canvas.Width = 0
	cfg.Canvas.StrokeColor = "black"
	cfg.Submit.SchemaMode = "lenient"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"endpoint", "canvas", "canvas.stroke_color", "submit.schema_mode", "log.format"}, fields)

	cfg = DefaultConfig()
	cfg.Endpoint = ""
	cfg.Submit.Discover = true
	assert.NoError(t, cfg.Validate(), "the endpoint is not needed with discovery")
}

func TestParseColor(t *testing.T) {
	for s, exp := range map[string]color.NRGBA{
		"#000000":   {A: 0xff},
		"#fff":      {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		"667eea":    {R: 0x66, G: 0x7e, B: 0xea, A: 0xff},
		"#ff000080": {R: 0xff, A: 0x80},
	} {
		c, err := ParseColor(s)
		require.NoError(t, err, s)
		assert.Equal(t, exp, c, s)
	}
	for _, s := range []string{"", "#12", "#gggggg", "red"} {
		_, err := ParseColor(s)
		assert.Error(t, err, s)
	}
}

func TestCanvasStyle(t *testing.T) {
	style, err := DefaultConfig().Canvas.Style()
	require.NoError(t, err)
	assert.Equal(t, 15.0, style.LineWidth)
	assert.Equal(t, color.NRGBA{A: 0xff}, style.Stroke)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, style.Background)
}
