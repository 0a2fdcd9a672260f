package services

import (
	"fmt"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/common/ipfs"
	"github.com/ceramicnetwork/go-mint/common/pinata"
	"github.com/ceramicnetwork/go-mint/models"
)

// NewContentPinner returns the pinning backend selected by the configuration. A Pinata client without a credential is
// still returned; each of its calls then fails with a configuration error before any request is made.
func NewContentPinner(logger models.Logger, cfg *config.Config, metricService models.MetricService) (models.ContentPinner, error) {
	switch cfg.PinBackend {
	case mint.PinBackend_Pinata:
		return pinata.NewClient(logger, cfg.PinataApiUrl, cfg.PinataJwt, metricService), nil
	case mint.PinBackend_Kubo:
		return ipfs.NewIpfsApi(logger, cfg.IpfsAddress, metricService)
	default:
		return nil, &models.ConfigurationError{Setting: mint.Env_PinBackend, Err: fmt.Errorf("unknown backend %q", cfg.PinBackend)}
	}
}
