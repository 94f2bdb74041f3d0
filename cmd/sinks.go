package cmd

import (
	"io"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/cache"
	"example.com/backstage/services/telematics/internal/database"
	"example.com/backstage/services/telematics/internal/messaging"
	"example.com/backstage/services/telematics/internal/search"
	"example.com/backstage/services/telematics/internal/services"
)

// initSinks builds every enabled summary sink. A sink that cannot be
// initialized is logged and left out of the run.
func initSinks(cfg config.Config) ([]services.SummarySink, []io.Closer) {
	var (
		sinks   []services.SummarySink
		closers []io.Closer
	)

	if cfg.DB.Enabled {
		if archive, db, err := initArchive(cfg.DB); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize summary archive, continuing without it")
		} else {
			sinks = append(sinks, archive)
			closers = append(closers, db)
		}
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		} else {
			sinks = append(sinks, redisCache)
			closers = append(closers, redisCache)
		}
	}

	if cfg.Elastic.Enabled {
		elasticClient, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		} else {
			sinks = append(sinks, elasticClient)
		}
	}

	if cfg.Azure.Enabled {
		client, err := messaging.NewServiceBusClient(cfg.Azure, "telematics")
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without messaging")
		} else {
			publisher := messaging.NewSummaryPublisher(client)
			sinks = append(sinks, publisher)
			closers = append(closers, publisher)
		}
	}

	log.Debug().Int("sinks", len(sinks)).Msg("summary sinks initialized")
	return sinks, closers
}

func initArchive(cfg config.DatabaseConfig) (*database.SummaryArchive, database.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	archive, err := database.NewSummaryArchive(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return archive, db, nil
}
