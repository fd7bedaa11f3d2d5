package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type (
	imageSearchService struct {
		*sqlx.DB
		log zerolog.Logger
	}

	Image struct {
		ImageURL   string `db:"image_url"`
		ContextURL string `db:"context_url"`
		GIF        bool   `db:"is_gif"`
	}
)

func (i Image) ImageLink() string {
	return i.ImageURL
}

func (i Image) ContextLink() string {
	return i.ContextURL
}

func (i Image) IsGIF() bool {
	return i.GIF
}

func NewImageSearchService(db *sqlx.DB) *imageSearchService {
	return &imageSearchService{
		DB:  db,
		log: logger.New("imageSearchService"),
	}
}

// GetImages returns the newest cached result set for query in search-result order.
// An empty wrapper means nothing is cached.
func (db *imageSearchService) GetImages(query string) (model.ImageSearchImages, error) {
	query = strings.ToLower(query)
	const selectQuery = `SELECT isi.query_id, isi.image_url, isi.context_url, isi.is_gif
		FROM image_search_images isi
		WHERE isi.query_id = (
			SELECT isq.id FROM image_search_queries isq
			WHERE isq.query = ?
			ORDER BY isq.created_at DESC, isq.id DESC
			LIMIT 1
		)
		ORDER BY isi.position`

	rows, err := db.Queryx(selectQuery, query)
	if err != nil {
		return model.ImageSearchImages{}, err
	}
	defer func(rows *sqlx.Rows) {
		err := rows.Close()
		if err != nil {
			db.log.Err(err).Send()
		}
	}(rows)

	var images []model.ImageSearchImage
	var queryID int64
	for rows.Next() {
		var image Image
		err := rows.Scan(&queryID, &image.ImageURL, &image.ContextURL, &image.GIF)
		if err != nil {
			return model.ImageSearchImages{}, err
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return model.ImageSearchImages{}, err
	}

	return model.ImageSearchImages{
		QueryID: queryID,
		Images:  images,
	}, nil
}

func (db *imageSearchService) SaveImages(query string, wrapper *model.ImageSearchImages) (int64, error) {
	query = strings.ToLower(query)
	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		return 0, err
	}

	defer func(tx *sqlx.Tx) {
		err := tx.Rollback()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.log.Err(err).Msg("failed to rollback transaction")
		}
	}(tx)

	const insertSearchQuery = `INSERT INTO image_search_queries (query) VALUES (?)`
	res, err := tx.Exec(insertSearchQuery, query)
	if err != nil {
		return 0, err
	}

	lastInsertID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(wrapper.Images) > 0 {
		valueStrings := make([]string, 0, len(wrapper.Images))
		valueArgs := make([]any, 0, len(wrapper.Images)*5)
		for i, image := range wrapper.Images {
			valueStrings = append(valueStrings, "(?, ?, ?, ?, ?)")
			valueArgs = append(valueArgs, lastInsertID, i, image.ImageLink(), image.ContextLink(), image.IsGIF())
		}
		insertImages := fmt.Sprintf("INSERT INTO image_search_images (query_id, position, image_url, context_url, is_gif) VALUES %s",
			strings.Join(valueStrings, ","))
		_, err = tx.Exec(insertImages, valueArgs...)
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	wrapper.QueryID = lastInsertID
	return lastInsertID, nil
}
