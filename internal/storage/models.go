package storage

// Snapshot is one freshly fetched render cycle
type Snapshot struct {
	CycleID      string         `gorm:"primaryKey;size:36"`
	FetchedTS    int64          `gorm:"not null;index"`
	CardCount    int            `gorm:"not null"`
	SkippedCount int            `gorm:"not null;default:0"`
	CreatedTS    int64          `gorm:"not null;index"`
	Cards        []SnapshotCard `gorm:"foreignKey:CycleID;references:CycleID;constraint:OnDelete:CASCADE"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

// SnapshotCard is one card of a snapshot, in display order
type SnapshotCard struct {
	ID                 int64   `gorm:"primaryKey;autoIncrement"`
	CycleID            string  `gorm:"size:36;not null;index"`
	Position           int     `gorm:"not null"`
	Title              string  `gorm:"size:512;not null"`
	URL                string  `gorm:"size:512"`
	VolumeMillions     float64 `gorm:"type:decimal(20,2);not null"`
	ProbabilityPercent float64 `gorm:"type:decimal(5,1);not null"`
}

func (SnapshotCard) TableName() string {
	return "snapshot_cards"
}
