package main

// Subject is one tracked tag or URL with its aggregate visit count.
// VisitCount changes only through the coordinator's atomic increment path.
type Subject struct {
	ID         uint   `gorm:"primaryKey"`
	Tag        string `gorm:"uniqueIndex;size:200"`
	VisitCount int64
	CreatedAt  int64 `gorm:"index;autoCreateTime:false"` // unix seconds
}

// ClientIdentity records the first observation of a visitor token,
// whether it came from an IP hash or a minted cookie id.
type ClientIdentity struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;size:64"`
	FirstSeen int64
}

// VisitRecord is one dedup ledger row: client X was last counted for
// subject Y at LastVisitAt. One row per (client, subject) pair.
type VisitRecord struct {
	ID          uint   `gorm:"primaryKey"`
	ClientToken string `gorm:"uniqueIndex:idx_client_subject;size:64"`
	SubjectTag  string `gorm:"uniqueIndex:idx_client_subject;size:200"`
	LastVisitAt int64  `gorm:"index"`
}
