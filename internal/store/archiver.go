package store

import (
	"os"
	"path/filepath"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"time"

	json "github.com/goccy/go-json"
)

// ArchiveFile is the on-disk format for one archived calendar day.
type ArchiveFile struct {
	Date       string    `json:"date"`
	ArchivedAt time.Time `json:"archived_at"`
	Rows       []DayRow  `json:"rows"`
}

// Archiver moves daily ledger rows older than the retention window into
// zstd-compressed archives, then prunes them from the live ledger. Archives
// are audit material only; nothing reads them back at runtime.
type Archiver struct {
	conf       *structures.Config
	store      AccumulationStoreInterface
	compressor CompressorInterface
	logger     providers.Logger
	loc        *time.Location
}

func NewArchiver(conf *structures.Config, store AccumulationStoreInterface, compressor CompressorInterface, logger providers.Logger, loc *time.Location) *Archiver {
	return &Archiver{
		conf:       conf,
		store:      store,
		compressor: compressor,
		logger:     logger,
		loc:        loc,
	}
}

// Run archives every day older than the retention window. Failures are
// logged and the day is left in the ledger for the next run.
func (a *Archiver) Run() {
	if a.conf.Storage.RetentionDays <= 0 || a.conf.Storage.ArchiveDir == "" {
		return
	}

	cutoff := time.Now().In(a.loc).AddDate(0, 0, -a.conf.Storage.RetentionDays).Format(models.DateLayout)
	days, err := a.store.DaysBefore(cutoff)
	if err != nil {
		a.logger.Errorf(providers.TypeApp, "Archive scan failed: %s", err)
		return
	}

	for _, day := range days {
		if err := a.archiveDay(day); err != nil {
			a.logger.Errorf(providers.TypeApp, "Archiving %s failed: %s", day, err)
			continue
		}
		a.logger.Infof(providers.TypeApp, "Archived ledger rows for %s", day)
	}
}

func (a *Archiver) archiveDay(day string) error {
	rows, err := a.store.DayRows(day)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(&ArchiveFile{
		Date:       day,
		ArchivedAt: time.Now().UTC(),
		Rows:       rows,
	})
	if err != nil {
		return err
	}

	compressed, err := a.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.conf.Storage.ArchiveDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(a.conf.Storage.ArchiveDir, day+".ledger.zst")
	if err := WriteFileAtomic(path, compressed, 0644); err != nil {
		return err
	}

	// Prune only after the archive file is durably in place.
	return a.store.PruneDay(day)
}
