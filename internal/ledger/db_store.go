package ledger

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dcrodman/connect4/internal/core"
)

// ScoreRecord is the database row for one handle's tally.
type ScoreRecord struct {
	Handle string `gorm:"primaryKey"`
	Wins   int    `gorm:"not null;default:0"`
	Losses int    `gorm:"not null;default:0"`
	Draws  int    `gorm:"not null;default:0"`
}

// Rows per INSERT, kept well under SQLite's bound-variable limit.
const saveBatchSize = 500

// DBStore keeps the ledger in a score_records table through gorm.
type DBStore struct {
	DB *gorm.DB
}

// NewDBStore migrates the score_records table on db.
func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&ScoreRecord{}); err != nil {
		return nil, fmt.Errorf("error auto migrating db: %w", err)
	}
	return &DBStore{DB: db}, nil
}

func (s *DBStore) Load() (map[string]Record, error) {
	var rows []ScoreRecord
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading scores: %w", err)
	}

	records := make(map[string]Record, len(rows))
	var malformed []string
	for _, row := range rows {
		if row.Wins < 0 || row.Losses < 0 || row.Draws < 0 {
			malformed = append(malformed, row.Handle)
			continue
		}
		records[row.Handle] = Record{Wins: row.Wins, Losses: row.Losses, Draws: row.Draws}
	}

	if len(malformed) > 0 {
		return records, &MalformedError{Handles: malformed}
	}
	return records, nil
}

// Save replaces the contents of the table with records in one transaction.
func (s *DBStore) Save(records map[string]Record) error {
	rows := make([]ScoreRecord, 0, len(records))
	for handle, r := range records {
		rows = append(rows, ScoreRecord{Handle: handle, Wins: r.Wins, Losses: r.Losses, Draws: r.Draws})
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ScoreRecord{}).Error; err != nil {
			return fmt.Errorf("error removing old scores: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, saveBatchSize).Error; err != nil {
			return fmt.Errorf("error saving scores: %w", err)
		}
		return nil
	})
}

func (s *DBStore) Close() error {
	database, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("error while getting current connection: %w", err)
	}
	if err := database.Close(); err != nil {
		return fmt.Errorf("error while closing database connection: %w", err)
	}
	return nil
}

// OpenStore builds the Store selected by the ledger engine in cfg.
func OpenStore(cfg *core.Config) (Store, error) {
	engine := strings.ToLower(cfg.Ledger.Engine)
	if engine == "" || engine == "file" {
		return NewFileStore(cfg.QualifiedPath(cfg.Ledger.Path)), nil
	}

	var dialector gorm.Dialector
	switch engine {
	case "sqlite":
		dialector = sqlite.Open(cfg.QualifiedPath(cfg.Ledger.Path))
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL())
	default:
		return nil, fmt.Errorf("unsupported ledger engine: %s", cfg.Ledger.Engine)
	}

	// By default only log errors but enable full SQL query prints-to-console with debug mode
	log := logger.Default.LogMode(logger.Error)
	if cfg.Debugging.DatabaseLoggingEnabled {
		log = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return NewDBStore(db)
}
