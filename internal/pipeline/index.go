package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/thaw-dev/thaw-cli/internal/htmlx"
)

// reloadClientPath is the fixed URL the dev-mode live-reload client script
// is served from; its contents are delivered verbatim.
const reloadClientPath = "/__thaw_cli__.js"

// reloadClientFilename is reloadClientPath's basename, the file written into
// clientOutDir on dev builds so the path above actually resolves.
const reloadClientFilename = "__thaw_cli__.js"

// reloadClientScript opens a WebSocket to the native reload endpoint and
// reloads the page when the server announces a finished rebuild. It
// reconnects on drop so a backend restart doesn't strand the tab.
const reloadClientScript = `(() => {
  const url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/__thaw_cli__";
  const connect = () => {
    const ws = new WebSocket(url);
    ws.onmessage = (event) => {
      let msg;
      try {
        msg = JSON.parse(event.data);
      } catch {
        return;
      }
      if (msg.type === "RefreshPage") {
        location.reload();
      }
    };
    ws.onclose = () => setTimeout(connect, 1000);
  };
  connect();
})();
`

// BuildIndexHTML reads <cwd>/index.html, injects the inline WASM bootstrap
// script (and, in dev mode, the live-reload client script tag plus its
// backing file), and writes the result to clientOutDir/index.html. This is
// both a stage of the full CSR build and the standalone index-only
// incremental rebuild.
func (p *Pipeline) BuildIndexHTML(clientOutDir, packageName string, devMode bool) error {
	src := filepath.Join(p.Ctx.CWD, "index.html")
	data, err := os.ReadFile(src)
	if err != nil {
		return &BuildStageError{Stage: "index.html", Err: err}
	}

	assetsDir := path.Base(p.Ctx.Config.Build.AssetsDir)
	initScript := fmt.Sprintf(
		"import init from '/%s/%s.js';await init({ module_or_path: '/%s/%s_bg.wasm' })",
		assetsDir, packageName, assetsDir, packageName,
	)
	tags := []htmlx.Tag{{
		Name: "script",
		Attrs: []htmlx.Attr{
			{Key: "type", Value: "module"},
		},
		Children: initScript,
		InjectTo: htmlx.Body,
	}}
	if devMode {
		tags = append(tags, htmlx.Tag{
			Name: "script",
			Attrs: []htmlx.Attr{
				{Key: "src", Value: reloadClientPath},
			},
			InjectTo: htmlx.Body,
		})
	}

	transformed := htmlx.Transform(string(data), tags)

	if err := os.MkdirAll(clientOutDir, 0o755); err != nil {
		return &BuildStageError{Stage: "index.html", Err: err}
	}
	if err := os.WriteFile(filepath.Join(clientOutDir, "index.html"), []byte(transformed), 0o644); err != nil {
		return &BuildStageError{Stage: "index.html", Err: err}
	}

	if devMode {
		clientPath := filepath.Join(clientOutDir, reloadClientFilename)
		if err := os.WriteFile(clientPath, []byte(reloadClientScript), 0o644); err != nil {
			return &BuildStageError{Stage: "index.html", Err: err}
		}
	}
	return nil
}
