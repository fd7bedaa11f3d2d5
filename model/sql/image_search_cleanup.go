package sql

import (
	"time"

	"github.com/Brawl345/imagequery/logger"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type imageSearchCleanupService struct {
	*sqlx.DB
	log zerolog.Logger
}

func NewImageSearchCleanupService(db *sqlx.DB) *imageSearchCleanupService {
	return &imageSearchCleanupService{
		DB:  db,
		log: logger.New("imageSearchCleanupService"),
	}
}

// Cleanup drops cached result sets older than maxAge. Images go with them through the foreign key.
func (db *imageSearchCleanupService) Cleanup(maxAge time.Duration) (int64, error) {
	const query = `DELETE FROM image_search_queries WHERE created_at < ?`
	res, err := db.Exec(query, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	db.log.Debug().Int64("deleted", n).Msg("cleaned up cached image searches")
	return n, nil
}
