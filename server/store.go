package main

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitStore bundles the subject registry and the dedup ledger on a single
// database handle. Methods that participate in the visit transaction are
// called through WithTx so every read-modify-write shares one unit of work.
type VisitStore struct {
	db *gorm.DB
}

func NewVisitStore(db *gorm.DB) *VisitStore {
	return &VisitStore{db: db}
}

func (s *VisitStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Subject{}, &ClientIdentity{}, &VisitRecord{})
}

// WithTx returns a store view bound to the given transaction.
func (s *VisitStore) WithTx(tx *gorm.DB) *VisitStore {
	return &VisitStore{db: tx}
}

// Transaction runs fn inside a database transaction.
func (s *VisitStore) Transaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

// GetOrCreateSubject returns the subject for tag, creating it with a zero
// count when absent. created reports whether a new row was inserted.
func (s *VisitStore) GetOrCreateSubject(tag string, now int64) (Subject, bool, error) {
	var sub Subject
	res := s.db.Where(Subject{Tag: tag}).Attrs(Subject{CreatedAt: now}).FirstOrCreate(&sub)
	if res.Error != nil {
		return Subject{}, false, res.Error
	}
	return sub, res.RowsAffected > 0, nil
}

// IncrementCount bumps the subject's visit count in SQL and returns the new
// value. The expression form avoids lost updates between concurrent writers.
func (s *VisitStore) IncrementCount(tag string) (int64, error) {
	res := s.db.Model(&Subject{}).Where("tag = ?", tag).
		UpdateColumn("visit_count", gorm.Expr("visit_count + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	var sub Subject
	if err := s.db.Where("tag = ?", tag).First(&sub).Error; err != nil {
		return 0, err
	}
	return sub.VisitCount, nil
}

// GetCount returns the subject's visit count, or 0 for unknown tags.
func (s *VisitStore) GetCount(tag string) (int64, error) {
	var sub Subject
	if err := s.db.Where("tag = ?", tag).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return sub.VisitCount, nil
}

func (s *VisitStore) CountSubjects() (int64, error) {
	var n int64
	err := s.db.Model(&Subject{}).Count(&n).Error
	return n, err
}

func (s *VisitStore) SumVisits() (int64, error) {
	var total int64
	err := s.db.Model(&Subject{}).
		Select("COALESCE(SUM(visit_count), 0)").Scan(&total).Error
	return total, err
}

// CountCreatedSince counts subjects first seen after the given unix timestamp.
func (s *VisitStore) CountCreatedSince(since int64) (int64, error) {
	var n int64
	err := s.db.Model(&Subject{}).Where("created_at > ?", since).Count(&n).Error
	return n, err
}

// EnsureClient records an identity token on first observation.
func (s *VisitStore) EnsureClient(token string, now int64) error {
	var client ClientIdentity
	return s.db.Where(ClientIdentity{Token: token}).
		Attrs(ClientIdentity{FirstSeen: now}).FirstOrCreate(&client).Error
}

// LastVisit returns the last counted visit time for the (client, tag) pair.
// ok is false when no ledger row exists.
func (s *VisitStore) LastVisit(clientToken, tag string) (int64, bool, error) {
	var rec VisitRecord
	err := s.db.Where("client_token = ? AND subject_tag = ?", clientToken, tag).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return rec.LastVisitAt, true, nil
}

// RecordVisit upserts the pair's last visit timestamp to now.
func (s *VisitStore) RecordVisit(clientToken, tag string, now int64) error {
	rec := VisitRecord{ClientToken: clientToken, SubjectTag: tag, LastVisitAt: now}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_token"}, {Name: "subject_tag"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_visit_at": now}),
	}).Create(&rec).Error
}

// PurgeOlderThan bulk-deletes ledger rows last touched before cutoff and
// returns how many were removed.
func (s *VisitStore) PurgeOlderThan(cutoff int64) (int64, error) {
	res := s.db.Where("last_visit_at < ?", cutoff).Delete(&VisitRecord{})
	return res.RowsAffected, res.Error
}
