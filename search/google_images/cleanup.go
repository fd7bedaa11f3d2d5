package google_images

import (
	"time"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model"
	"github.com/Brawl345/imagequery/utils"
	"github.com/sosodev/duration"
)

const DefaultMaxAge = utils.Week

var log = logger.New("google_images")

// ParseMaxAge reads an ISO-8601 duration such as "P7D". An empty string yields DefaultMaxAge.
func ParseMaxAge(s string) (time.Duration, error) {
	if s == "" {
		return DefaultMaxAge, nil
	}

	d, err := duration.Parse(s)
	if err != nil {
		return 0, err
	}

	maxAge := d.ToTimeDuration()
	if maxAge <= 0 {
		return DefaultMaxAge, nil
	}
	return maxAge, nil
}

// ScheduleCleanup removes cached result sets older than maxAge once a day.
func ScheduleCleanup(cleanupService model.ImageSearchCleanupService, maxAge time.Duration) {
	time.AfterFunc(utils.Day, func() {
		cleanup(cleanupService, maxAge)
	})
}

func cleanup(cleanupService model.ImageSearchCleanupService, maxAge time.Duration) {
	log.Debug().Msg("starting cleanup")
	defer ScheduleCleanup(cleanupService, maxAge)

	n, err := cleanupService.Cleanup(maxAge)
	if err != nil {
		log.Error().Err(err).Msg("error cleaning up image search queries")
		return
	}
	log.Debug().Int64("deleted", n).Msg("cleanup finished")
}
