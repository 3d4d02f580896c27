package app

import (
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"flowboard/internal/config"
)

// Menu actions report back to the frontend with these events.
const (
	EventDocumentOpened   = "flow:opened"
	EventDocumentExported = "flow:exported"
)

// RunDesktop opens the desktop window and blocks until it closes. The
// frontend is served from cfg.Desktop.Assets.
func RunDesktop(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Desktop.Assets); err != nil {
		return fmt.Errorf("frontend assets: %w", err)
	}
	app := New(cfg)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Open…", keys.CmdOrCtrl("o"), func(*menu.CallbackData) {
		path, err := app.OpenDocument()
		if err != nil {
			wailsRuntime.LogErrorf(app.ctx, "open: %v", err)
			return
		}
		if path != "" {
			wailsRuntime.EventsEmit(app.ctx, EventDocumentOpened, path)
		}
	})
	fileMenu.AddText("Export", keys.CmdOrCtrl("e"), func(*menu.CallbackData) {
		res, err := app.Export()
		if err != nil {
			wailsRuntime.LogErrorf(app.ctx, "export: %v", err)
			return
		}
		wailsRuntime.EventsEmit(app.ctx, EventDocumentExported, res)
	})
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Flowboard",
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		MinWidth:  640,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: os.DirFS(cfg.Desktop.Assets),
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Flowboard",
				Message: "Node-link diagram editor",
			},
		},
	})
}
