package util

import (
	"errors"

	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

const dbTimerKey = "store:db_timer"

// GormMetrics - плагин GORM, измеряющий длительность запросов и считающий ошибки БД
type GormMetrics struct{}

func (GormMetrics) Name() string {
	return "store:metrics"
}

func (GormMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", startDbTimer(metrics.DbOpInsert)); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", observeDbTimer); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", startDbTimer(metrics.DbOpSelect)); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", observeDbTimer); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", startDbTimer(metrics.DbOpUpdate)); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", observeDbTimer); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", startDbTimer(metrics.DbOpDelete)); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("metrics:after_delete", observeDbTimer)
}

func startDbTimer(op metrics.DbOperation) func(*gorm.DB) {
	return func(db *gorm.DB) {
		db.InstanceSet(dbTimerKey, metrics.NewDbTimer(serviceName, op, db.Statement.Table))
	}
}

func observeDbTimer(db *gorm.DB) {
	value, ok := db.InstanceGet(dbTimerKey)
	if !ok {
		return
	}
	timer, ok := value.(*metrics.DbTimer)
	if !ok {
		return
	}

	// Отсутствие записи - штатный результат, а не ошибка БД
	err := db.Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	timer.ObserveDuration(err)
}
