package main

import (
	"os"
	"strconv"

	"github.com/Brawl345/imagequery/bot"
	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model/sql"
	"github.com/Brawl345/imagequery/plugin/about"
	"github.com/Brawl345/imagequery/plugin/creds"
	"github.com/Brawl345/imagequery/plugin/imagequery"
	"github.com/Brawl345/imagequery/search"
	"github.com/Brawl345/imagequery/search/google_images"
	"github.com/Brawl345/imagequery/search/wikipedia"
	"github.com/Brawl345/imagequery/utils"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	_ "github.com/joho/godotenv/autoload"
)

var log = logger.New("main")

func main() {
	versionInfo, err := utils.ReadVersionInfo()
	if err != nil {
		log.Warn().Err(err).Msg("Could not read build info")
	} else {
		log.Info().Msgf("Imagequery-%s, %v (%s)", versionInfo.Revision, versionInfo.LastCommit, versionInfo.GoVersion)
	}

	db, err := sql.New()
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	maxAge, err := google_images.ParseMaxAge(os.Getenv("IMAGE_CACHE_MAX_AGE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid IMAGE_CACHE_MAX_AGE")
	}

	releaseControls, _ := strconv.ParseBool(os.Getenv("RELEASE_CONTROLS_ON_SEARCH_ERROR"))

	credentialService := sql.NewCredentialService(db)
	imageSearchService := sql.NewImageSearchService(db)
	if credentialService.GetKey("google_api_key") == "" || credentialService.GetKey("google_search_engine_id") == "" {
		log.Warn().Msg("google_api_key or google_search_engine_id is not set, image search answers with an error until both are added via /creds_add")
	}
	google_images.ScheduleCleanup(sql.NewImageSearchCleanupService(db), maxAge)

	b, err := bot.New(os.Getenv("BOT_TOKEN"))
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	b.RegisterPlugin(imagequery.New(
		b.Bot,
		wikipedia.New(credentialService.GetKey("wikipedia_lang")),
		google_images.New(credentialService, imageSearchService),
		httpUtils.Downloader{},
		search.Options{ReleaseControlsOnTransportError: releaseControls},
	))
	b.RegisterPlugin(creds.New(credentialService))
	b.RegisterPlugin(about.New(versionInfo))

	if err := b.Start(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
