package sql

import (
	"embed"

	"github.com/Brawl345/imagequery/logger"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

var log = logger.New("sql")
