package notify

import (
	"deck-mirror/feature/mirror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface. It registers no routes;
// loading it subscribes the publisher to the mirror's due events.
type Feature struct {
	cfg       Config
	service   *mirror.Service
	log       *zap.Logger
	publisher *Publisher
}

// NewFeature creates the notify feature.
func NewFeature(cfg Config, service *mirror.Service, log *zap.Logger) *Feature {
	return &Feature{cfg: cfg, service: service, log: log}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "notify"
}

// IsEnabled reports whether a Redis address is configured.
func (f *Feature) IsEnabled() bool {
	return f.cfg.Addr != ""
}

// Load connects the publisher and subscribes it to due events.
func (f *Feature) Load(app fiber.Router) error {
	f.publisher = NewPublisher(f.cfg, f.log)
	f.service.Subscribe(f.publisher.Publish)
	f.log.Info("due events will be published to redis",
		zap.String("addr", f.cfg.Addr),
		zap.String("channel", f.cfg.Channel),
	)
	return nil
}
