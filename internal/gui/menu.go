// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger logrus.FieldLogger

	onOpen   func(path string)
	onExport func()
	onSaveAs func(fyne.URIWriteCloser)
}

func NewMenuHandler(window fyne.Window, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		fyne.NewMenuItem("Save to Library", mh.export),
		fyne.NewMenuItem("Save As...", mh.saveAs),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openImage() {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if mh.onOpen != nil {
			mh.onOpen(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) export() {
	if mh.onExport != nil {
		mh.onExport()
	}
}

func (mh *MenuHandler) saveAs() {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		if mh.onSaveAs == nil {
			writer.Close()
			return
		}
		mh.onSaveAs(writer)
	}, mh.window)

	fileDialog.SetFileName("filtered.jpg")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Filter Effects"),
		widget.NewSeparator(),
		widget.NewLabel("Lomo, antique, sketch, cartoon and HDR filters"),
		widget.NewLabel("with live preview."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go and Fyne"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(360, 220))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

// SetCallbacks wires the menu items to the application.
func (mh *MenuHandler) SetCallbacks(onOpen func(string), onExport func(), onSaveAs func(fyne.URIWriteCloser)) {
	mh.onOpen = onOpen
	mh.onExport = onExport
	mh.onSaveAs = onSaveAs
}
