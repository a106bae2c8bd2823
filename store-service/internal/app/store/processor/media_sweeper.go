package processor

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/media"

	"github.com/robfig/cron/v3"
)

// ReferenceSource возвращает имена файлов, на которые ссылаются строки БД
type ReferenceSource interface {
	ReferencedFiles(ctx context.Context) (map[string]struct{}, error)
}

// MediaStore - публичная директория загрузок (media.Storage)
type MediaStore interface {
	List() ([]media.FileInfo, error)
	Remove(names ...string)
}

// MediaSweeper периодически удаляет файлы, на которые не ссылается ни Image,
// ни ProductVideo, ни Product.mainImage. Файлы моложе grace не трогаются:
// они могут принадлежать запросу, транзакция которого ещё не завершена
type MediaSweeper struct {
	cron  *cron.Cron
	refs  ReferenceSource
	files MediaStore
	grace time.Duration
	now   func() time.Time
}

func NewMediaSweeper(refs ReferenceSource, files MediaStore, grace time.Duration) *MediaSweeper {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(logger.PrintfLogger())))

	return &MediaSweeper{
		cron:  c,
		refs:  refs,
		files: files,
		grace: grace,
		now:   time.Now,
	}
}

// Start регистрирует задачу по расписанию и запускает cron
func (s *MediaSweeper) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting media sweeper")

	_, err := s.cron.AddFunc(schedule, func() {
		removed, err := s.Sweep(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Media sweep failed")
			return
		}
		logger.Info().Int("removed", removed).Msg("Media sweep completed")
	})
	if err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	return nil
}

func (s *MediaSweeper) Stop() {
	logger.Info().Msg("Stopping media sweeper...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Media sweeper stopped")
}

func (s *MediaSweeper) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// Sweep удаляет осиротевшие файлы старше grace и возвращает их количество
func (s *MediaSweeper) Sweep(ctx context.Context) (int, error) {
	referenced, err := s.refs.ReferencedFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load referenced files: %w", err)
	}

	stored, err := s.files.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list media directory: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	var orphans []string
	for _, f := range stored {
		if !media.IsGeneratedName(f.Name) {
			continue
		}
		if _, ok := referenced[f.Name]; ok {
			continue
		}
		if f.ModTime.After(cutoff) {
			continue
		}
		orphans = append(orphans, f.Name)
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	s.files.Remove(orphans...)
	metrics.MediaSweeperRemoved.Add(float64(len(orphans)))
	logger.Debug().Strs("files", orphans).Msg("Removed orphaned media files")

	return len(orphans), nil
}
