package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"yashubustudio/catalog-search/catalog"
)

const (
	logDebounceInterval = 150 * time.Millisecond
	logLineLimit        = 200
)

var spreadsheetExts = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

type uiState struct {
	engine  *catalog.Engine
	logger  zerolog.Logger
	watcher *datasetWatcher
	cfg     catalog.Config
	cfgPath string
	cfgMu   sync.Mutex

	w           fyne.Window
	query       *widget.Entry
	directCheck *widget.Check
	log         *widget.Entry
	status      *widget.Label
	summary     *widget.Label
	synonyms    *widget.Label
	resTbl      *widget.Table
	dictTbl     *widget.Table
	statusBind  binding.String
	logBind     binding.String
	logLines    []string
	logMu       sync.Mutex
	logUpdateCh chan struct{}

	outcome    catalog.Outcome
	resultCols []tableColumn
	dictCols   []tableColumn

	searchBtn  *widget.Button
	exportBtn  *widget.Button
	dictBtn    *widget.Button
	catalogBtn *widget.Button
}

func newUIState(cfg catalog.Config, cfgPath string) *uiState {
	u := &uiState{cfg: cfg, cfgPath: cfgPath, logger: zerolog.Nop()}
	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("準備完了")
	u.logBind = binding.NewString()
	return u
}

func (u *uiState) build(a fyne.App) {
	u.w = a.NewWindow("Catalog Search - 辞書検索")
	u.startLogUpdater()

	u.query = widget.NewEntry()
	u.query.SetPlaceHolder("検索語 (例: fan + >100V #blower)")
	u.query.OnSubmitted = func(string) { u.onSearch() }

	u.directCheck = widget.NewCheck("辞書を使わず直接検索", func(checked bool) {
		u.cfgMu.Lock()
		u.cfg.ViaDictionary = !checked
		u.cfgMu.Unlock()
		u.saveConfig()
	})
	u.directCheck.SetChecked(!u.cfg.ViaDictionary)

	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("処理ログ")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.summary = widget.NewLabel("")
	u.summary.Wrapping = fyne.TextWrapWord
	u.synonyms = widget.NewLabel("")
	u.synonyms.Wrapping = fyne.TextWrapWord

	u.searchBtn = widget.NewButtonWithIcon("検索", theme.SearchIcon(), func() { u.onSearch() })
	u.exportBtn = widget.NewButtonWithIcon("CSVエクスポート", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.dictBtn = widget.NewButtonWithIcon("辞書読込", theme.FolderOpenIcon(), func() { u.onLoadDictionary() })
	u.catalogBtn = widget.NewButtonWithIcon("カタログ読込", theme.FolderOpenIcon(), func() { u.onLoadCatalog() })
	settingsBtn := widget.NewButtonWithIcon("設定", theme.SettingsIcon(), func() { u.openSettings() })

	u.resTbl = widget.NewTable(
		func() (int, int) {
			cols := len(u.resultCols)
			if cols == 0 {
				cols = 1
			}
			return len(u.outcome.Rows) + 1, cols
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Col >= len(u.resultCols) {
				lbl.SetText("")
				return
			}
			col := u.resultCols[id.Col]
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(col.Title)
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			lbl.SetText(truncateText(resultCell(u.outcome, id.Row-1, col), 120))
		},
	)

	u.dictTbl = widget.NewTable(
		func() (int, int) {
			cols := len(u.dictCols)
			if cols == 0 {
				cols = 1
			}
			return len(u.outcome.DictionaryRows) + 1, cols
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Col >= len(u.dictCols) {
				lbl.SetText("")
				return
			}
			col := u.dictCols[id.Col]
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(col.Title)
				return
			}
			text, bold := dictionaryCell(u.outcome, id.Row-1, col)
			lbl.TextStyle = fyne.TextStyle{Bold: bold}
			lbl.SetText(text)
		},
	)

	searchRow := container.NewBorder(nil, nil, nil, u.searchBtn, u.query)
	controlRow := container.NewGridWithColumns(3, u.dictBtn, u.catalogBtn, settingsBtn)
	left := container.NewVBox(
		widget.NewLabelWithStyle("検索", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		searchRow,
		u.directCheck,
		container.NewGridWithColumns(1, u.exportBtn),
		controlRow,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("状態", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.status,
		u.summary,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("同義語", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.synonyms,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("ログ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewMax(u.log),
	)

	right := container.NewVSplit(u.resTbl, u.dictTbl)
	right.Offset = 0.7
	split := container.NewHSplit(left, right)
	split.Offset = 0.32

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1180, 760))
	u.refreshColumns()
	u.updateSummary()
}

// Write feeds log output into the log pane.
func (u *uiState) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	u.logMu.Lock()
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			u.logLines = append(u.logLines, line)
		}
	}
	if len(u.logLines) > logLineLimit {
		u.logLines = u.logLines[len(u.logLines)-logLineLimit:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return len(p), nil
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.searchBtn, u.exportBtn, u.dictBtn, u.catalogBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
	})
}

func (u *uiState) config() catalog.Config {
	u.cfgMu.Lock()
	defer u.cfgMu.Unlock()
	return u.cfg.Clone()
}

func (u *uiState) saveConfig() {
	cfg := u.config()
	if err := catalog.SaveConfig(u.cfgPath, cfg); err != nil {
		u.logger.Error().Err(err).Msg("設定の保存に失敗しました")
	}
}

func (u *uiState) refreshColumns() {
	u.resultCols = resultColumns(u.engine.Catalog(), u.config())
	for i, col := range u.resultCols {
		u.resTbl.SetColumnWidth(i, col.Width)
	}
	u.dictCols = dictionaryTableColumns(u.engine.Dictionary())
	for i, col := range u.dictCols {
		u.dictTbl.SetColumnWidth(i, col.Width)
	}
	u.resTbl.Refresh()
	u.dictTbl.Refresh()
}

func (u *uiState) updateSummary() {
	cfg := u.config()
	u.summary.SetText(fmt.Sprintf("%s / %s (同義語 %d) / 検索列: %s / 表示列: %s",
		datasetSummary("カタログ", u.engine.Catalog()),
		datasetSummary("辞書", u.engine.Dictionary()),
		u.engine.SynonymCount(),
		formatColumnList(cfg.SearchColumns),
		formatColumnList(cfg.PreviewColumns)))
}

func (u *uiState) onSearch() {
	u.runSearch(u.query.Text, !u.directCheck.Checked)
}

func (u *uiState) runSearch(query string, viaDictionary bool) {
	u.setBusy(true)
	u.setStatus("検索中...")
	go func() {
		start := time.Now()
		out := u.engine.Search(query, viaDictionary)
		elapsed := time.Since(start)
		u.setBusy(false)
		u.logger.Info().Str("query", query).Str("status", string(out.Status)).
			Int("rows", len(out.Rows)).Dur("elapsed", elapsed).Msg("検索完了")
		fyne.Do(func() { u.showOutcome(query, viaDictionary, out) })
	}()
}

func (u *uiState) showOutcome(query string, viaDictionary bool, out catalog.Outcome) {
	u.setStatus(statusMessage(out))
	if out.Status == catalog.StatusNoDictionaryMatch && viaDictionary {
		msg := "辞書に該当する行がありません。"
		if terms := u.engine.SuggestTerms(query, 3); len(terms) > 0 {
			msg += fmt.Sprintf("\n候補: %s\n", strings.Join(terms, ", "))
		}
		dialog.NewConfirm("辞書に一致なし", msg+"カタログを直接検索しますか?",
			func(ok bool) {
				if ok {
					u.runSearch(query, false)
				}
			}, u.w).Show()
	}
	if !out.Status.Success() && out.Err != nil && out.Status != catalog.StatusInvalidTerm {
		dialog.ShowError(out.Err, u.w)
	}
	u.outcome = out
	u.synonyms.SetText(truncateText(strings.Join(out.Synonyms, ", "), 400))
	u.resTbl.Refresh()
	u.dictTbl.Refresh()
}

func (u *uiState) onExport() {
	if len(u.outcome.Rows) == 0 || u.outcome.Catalog == nil {
		dialog.ShowInformation("情報", "出力データがありません", u.w)
		return
	}
	shown := u.outcome.Catalog
	rows := append([]int(nil), u.outcome.Rows...)
	cols := make([]int, len(u.resultCols))
	for i, col := range u.resultCols {
		cols[i] = col.Index
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := catalog.WriteRowsCSV(uc, shown, rows, cols); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info().Int("rows", len(rows)).Str("file", uc.URI().Name()).Msg("CSVエクスポート完了")
	}, u.w)
	fd.SetFileName("result.csv")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}

func (u *uiState) onLoadDictionary() {
	u.pickDataset(func(path string) { u.loadDataset(path, true) })
}

func (u *uiState) onLoadCatalog() {
	u.pickDataset(func(path string) { u.loadDataset(path, false) })
}

func (u *uiState) pickDataset(fn func(path string)) {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		fn(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(spreadsheetExts))
	fd.Show()
}

func (u *uiState) loadDataset(path string, dictionary bool) {
	u.setBusy(true)
	u.setStatus("読込中...")
	go func() {
		defer u.setBusy(false)
		if err := u.applyDataset(path, dictionary); err != nil {
			u.logger.Error().Err(err).Str("file", path).Msg("読込に失敗しました")
			u.setStatus("読込エラー")
			fyne.Do(func() { dialog.ShowError(err, u.w) })
			return
		}
		u.saveConfig()
		u.setStatus("読込完了")
		fyne.Do(func() {
			u.outcome = catalog.Outcome{}
			u.refreshColumns()
			u.updateSummary()
		})
	}()
}

// applyDataset reads path into the engine and records it in the config.
func (u *uiState) applyDataset(path string, dictionary bool) error {
	ds, err := catalog.LoadDataset(path)
	if err != nil {
		return err
	}
	if dictionary {
		err = u.engine.LoadDictionary(ds)
	} else {
		err = u.engine.LoadCatalog(ds)
	}
	if err != nil {
		return err
	}
	u.cfgMu.Lock()
	if dictionary {
		u.cfg.DictionaryPath = path
	} else {
		u.cfg.CatalogPath = path
	}
	u.cfgMu.Unlock()
	u.watch(path, dictionary)
	return nil
}

func (u *uiState) watch(path string, dictionary bool) {
	if u.watcher == nil {
		return
	}
	if err := u.watcher.Watch(path, dictionary); err != nil {
		u.logger.Warn().Err(err).Str("file", path).Msg("ファイル監視を開始できませんでした")
	}
}

// restoreDatasets reloads the files remembered in the config.
func (u *uiState) restoreDatasets() {
	cfg := u.config()
	var errs []error
	if cfg.DictionaryPath != "" {
		if err := u.applyDataset(cfg.DictionaryPath, true); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.CatalogPath != "" {
		if err := u.applyDataset(cfg.CatalogPath, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		u.logger.Warn().Err(err).Msg("前回のファイルを読み込めませんでした")
	}
}

func (u *uiState) openSettings() {
	cfg := u.config()
	searchEntry := widget.NewEntry()
	searchEntry.SetText(formatColumnList(cfg.SearchColumns))
	previewEntry := widget.NewEntry()
	previewEntry.SetText(formatColumnList(cfg.PreviewColumns))
	levelSel := widget.NewSelect([]string{"debug", "info", "warn", "error"}, nil)
	levelSel.SetSelected(cfg.Log.Level)

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "検索列 (all または 0,2)", Widget: searchEntry},
		{Text: "表示列 (all または 0,1)", Widget: previewEntry},
		{Text: "ログレベル", Widget: levelSel},
	}}

	dialog.NewCustomConfirm("設定", "OK", "キャンセル", form, func(ok bool) {
		if !ok {
			return
		}
		searchCols, err := parseColumnList(searchEntry.Text)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		previewCols, err := parseColumnList(previewEntry.Text)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.cfgMu.Lock()
		u.cfg.SearchColumns = searchCols
		u.cfg.PreviewColumns = previewCols
		if levelSel.Selected != "" {
			u.cfg.Log.Level = levelSel.Selected
		}
		u.cfgMu.Unlock()
		u.engine.SetColumns(searchCols)
		u.saveConfig()
		u.refreshColumns()
		u.updateSummary()
		u.logger.Info().Str("search", formatColumnList(searchCols)).Str("preview", formatColumnList(previewCols)).Msg("設定を更新しました")
	}, u.w).Show()
}
