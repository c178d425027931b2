package app

import (
	"fmt"
	"io"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/catalog-search/catalog"
)

const (
	fyneAppID  = "studio.yashubu.catalog-search"
	configFile = "config.json"
)

// Run loads the saved settings and starts the desktop UI.
func Run() error {
	cfg, err := catalog.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalog.SetColumnCandidates(cfg.Columns)
	u := newUIState(cfg, configFile)
	logCfg := cfg.Log
	logCfg.NoColor = true
	logCfg.Output = io.MultiWriter(os.Stderr, u)
	u.logger = catalog.NewLogger(logCfg)
	u.engine = catalog.NewEngine(u.logger)
	u.engine.SetColumns(cfg.SearchColumns)
	if w, err := newDatasetWatcher(u.logger, u.loadDataset); err != nil {
		u.logger.Warn().Err(err).Msg("ファイル監視を利用できません")
	} else {
		u.watcher = w
		defer w.Close()
	}
	u.restoreDatasets()

	a := fyneapp.NewWithID(fyneAppID)
	u.build(a)
	u.w.ShowAndRun()
	u.saveConfig()
	return nil
}
