// Main window: one tab per filter over a shared session
package gui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/filters"
	"github.com/microsoft/filter-effects/internal/io"
	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/metrics"
	"github.com/microsoft/filter-effects/internal/session"
)

const closeTimeout = 5 * time.Second

// Options wires the application to its collaborators.
type Options struct {
	Logger      logrus.FieldLogger
	Group       *filters.Group
	Session     *session.Session
	Loader      *io.Loader
	Library     *io.Library
	Recorder    *metrics.Recorder
	JPEGQuality int
	DebugMode   bool
}

// Application represents the main window
type Application struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger
	opts   Options

	views  []*FilterView
	tabs   *container.AppTabs
	status *StatusBar
	menu   *MenuHandler
}

func NewApplication(app fyne.App, opts Options) *Application {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	title := "Filter Effects"
	if opts.DebugMode {
		title += " [debug]"
	}
	window := app.NewWindow(title)
	window.Resize(fyne.NewSize(1100, 800))
	window.CenterOnScreen()

	a := &Application{
		app:    app,
		window: window,
		logger: opts.Logger,
		opts:   opts,
	}

	a.initializeGUI()
	a.setupLayout()
	return a
}

func (a *Application) initializeGUI() {
	a.status = NewStatusBar(a.opts.Recorder)

	for _, f := range a.opts.Group.Filters() {
		view := NewFilterView(f, a.logger)
		view.OnFrame(func(f *filters.Filter) {
			a.status.ShowFilter(f)
		})
		a.views = append(a.views, view)
	}

	a.menu = NewMenuHandler(a.window, a.logger)
	a.menu.SetCallbacks(a.openImage, a.exportCurrent, a.saveCurrentAs)
}

func (a *Application) setupLayout() {
	a.tabs = container.NewAppTabs()
	for _, view := range a.views {
		a.tabs.Append(container.NewTabItem(view.Filter().Name(), view.Container()))
	}
	a.tabs.SetTabLocation(container.TabLocationTop)
	a.tabs.OnSelected = func(*container.TabItem) {
		if view := a.CurrentView(); view != nil {
			a.status.ShowFilter(view.Filter())
		}
	}

	a.window.SetMainMenu(a.menu.GetMainMenu())
	a.window.SetContent(container.NewBorder(nil, a.status.Container(), nil, nil, a.tabs))
}

// CurrentView returns the view of the selected tab.
func (a *Application) CurrentView() *FilterView {
	if a.tabs == nil || len(a.views) == 0 {
		return nil
	}
	idx := a.tabs.SelectedIndex()
	if idx < 0 || idx >= len(a.views) {
		return nil
	}
	return a.views[idx]
}

func (a *Application) Views() []*FilterView {
	return a.views
}

func (a *Application) Window() fyne.Window {
	return a.window
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.opts.Group.Close(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to dispose filters")
	}
	a.opts.Session.Reset()
}

// LoadImageFromPath loads path into the session and every filter. It is safe
// to call from any goroutine.
func (a *Application) LoadImageFromPath(path string) error {
	data, err := a.opts.Loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	if err := a.opts.Session.Load(data, false); err != nil {
		return fmt.Errorf("failed to prepare image: %w", err)
	}

	size := a.opts.Session.PreviewSize()
	if err := a.opts.Group.SetPreviewResolution(size.X, size.Y); err != nil {
		return fmt.Errorf("failed to size previews: %w", err)
	}
	if err := a.opts.Group.SetBuffer(a.opts.Session.PreviewBuffer()); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	a.opts.Group.RequestApply()

	fyne.Do(func() {
		a.status.SetMessage(fmt.Sprintf("Loaded: %s", path))
	})
	a.logger.WithField("path", path).Info("Image loaded successfully")
	return nil
}

func (a *Application) openImage(path string) {
	go func() {
		if err := a.LoadImageFromPath(path); err != nil {
			fyne.Do(func() {
				a.showError("Failed to Load Image", err)
			})
		}
	}()
}

// renderCurrent renders the selected filter at full resolution.
func (a *Application) renderCurrent(ctx context.Context) (*filters.Filter, []byte, error) {
	view := a.CurrentView()
	if view == nil {
		return nil, nil, fmt.Errorf("no filter selected")
	}
	if !a.opts.Session.HasImage() {
		return nil, nil, fmt.Errorf("no image loaded to save")
	}
	f := view.Filter()
	jpeg, err := f.RenderJPEG(ctx, a.opts.Session.FullResolutionBuffer(), a.opts.JPEGQuality)
	return f, jpeg, err
}

// exportCurrent saves the selected filter's full-resolution render to the
// photo library directory.
func (a *Application) exportCurrent() {
	a.status.SetMessage("Saving...")
	go func() {
		f, jpeg, err := a.renderCurrent(context.Background())
		if err != nil {
			fyne.Do(func() { a.showError("Failed to Save Image", err) })
			return
		}
		path, err := a.opts.Library.Save(jpeg)
		if err != nil {
			fyne.Do(func() { a.showError("Failed to Save Image", err) })
			return
		}
		a.logger.WithFields(logrus.Fields{
			"filter": f.Name(),
			"path":   path,
		}).Info("Image exported")
		fyne.Do(func() {
			a.showInfo("Image Saved", fmt.Sprintf("Image successfully saved to:\n%s", path))
			a.status.SetMessage(fmt.Sprintf("Saved: %s", path))
		})
	}()
}

func (a *Application) saveCurrentAs(writer fyne.URIWriteCloser) {
	go func() {
		defer writer.Close()
		_, jpeg, err := a.renderCurrent(context.Background())
		if err == nil {
			_, err = writer.Write(jpeg)
		}
		if err != nil {
			fyne.Do(func() { a.showError("Failed to Save Image", err) })
			return
		}
		path := writer.URI().Path()
		fyne.Do(func() {
			a.status.SetMessage(fmt.Sprintf("Saved: %s", path))
		})
	}()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.status.SetMessage(fmt.Sprintf("Error: %s", err.Error()))
}

func (a *Application) showInfo(title, message string) {
	a.logger.WithField("message", message).Info(title)
	dialog.ShowInformation(title, message, a.window)
}

// emptyState is shown in a tab until an image is loaded.
func emptyState() fyne.CanvasObject {
	return container.NewCenter(widget.NewLabel("Open an image to preview the filter"))
}
