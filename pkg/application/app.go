// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bitkoop-network/miner-cli/pkg/apiclient"
	"github.com/bitkoop-network/miner-cli/pkg/config"
	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/coupon"
	"github.com/bitkoop-network/miner-cli/pkg/fanout"
	"github.com/bitkoop-network/miner-cli/pkg/metagraph"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// BitKoop carries the wiring every command shares: logging, configuration
// and the network the CLI was pointed at.
type BitKoop struct {
	Log     *zap.Logger
	Conf    *config.Config
	Network models.Network
	baseDir string
}

func New() *BitKoop {
	return &BitKoop{}
}

func (app *BitKoop) Setup(baseDir string, log *zap.Logger, conf *config.Config, network models.Network) {
	app.baseDir = baseDir
	app.Log = log
	app.Conf = conf
	app.Network = network
}

func (app *BitKoop) GetBaseDir() string {
	return app.baseDir
}

func (app *BitKoop) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDirName)
}

// NewRegistry builds the validator registry for the configured network.
func (app *BitKoop) NewRegistry() *metagraph.Registry {
	prober := metagraph.NewProber(metagraph.ProberConfig{
		Timeout:       app.Conf.ProbeTimeout(),
		MaxConcurrent: int64(app.Conf.MaxConcurrentProbes()),
	}, app.Log)
	reader := metagraph.NewGatewayReader(app.Conf.GatewayURL())
	return metagraph.NewRegistry(metagraph.RegistryConfig{
		Network:         app.Network,
		TTL:             app.Conf.RegistryTTL(),
		ProbeOnDiscover: true,
	}, reader, prober, app.Log)
}

// NewChainClient builds the JSON-RPC client for the chain entrypoint.
func (app *BitKoop) NewChainClient() *metagraph.SubstrateClient {
	endpoint := app.Network.ChainEndpoint(app.Conf.ChainEndpoint())
	return metagraph.NewSubstrateClient(endpoint, app.Log)
}

// NewSubmitter builds the network operations layer.
func (app *BitKoop) NewSubmitter(registry *metagraph.Registry) *coupon.Submitter {
	client := apiclient.New(apiclient.Config{
		Timeout:    app.Conf.RequestTimeout(),
		MaxRetries: app.Conf.HTTPMaxRetries(),
		RetryDelay: app.Conf.HTTPRetryDelay(),
	}, app.Log)
	executor := fanout.NewExecutor(fanout.Config{
		MaxConcurrent: int64(app.Conf.MaxConcurrentSubmissions()),
	}, client, app.Log)
	return coupon.NewSubmitter(coupon.SubmitterConfig{
		MaxValidators: app.Conf.MaxValidators(),
		MaxConcurrent: int64(app.Conf.MaxConcurrentSubmissions()),
	}, registry, executor, client, app.Log)
}
