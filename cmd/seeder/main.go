package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/lumeo-app/message-dispatcher/internal/db"
	"github.com/lumeo-app/message-dispatcher/internal/logging"
)

// Development seeder: loads a small messaging fixture so a local dispatcher
// run has something to deliver. Never point this at a real environment.
func main() {
	log := logging.New("info", "console")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on OS environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	pool, err := db.Connect(dsn, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(pool, log); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	seedFiles := []string{
		"seed/users.sql",
		"seed/conversations.sql",
		"seed/messages.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := pool.Exec(string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed")
}
