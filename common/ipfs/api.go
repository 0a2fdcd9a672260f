package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abevier/tsk/ratelimiter"

	iface "github.com/ipfs/boxo/coreiface"
	"github.com/ipfs/boxo/coreiface/options"
	"github.com/ipfs/boxo/coreiface/path"
	"github.com/ipfs/boxo/files"
	"github.com/ipfs/kubo/client/rpc"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/ceramicnetwork/go-mint/models"
)

const ServiceName = "ipfs"

const defaultIpfsRateLimit = 16
const defaultIpfsBurstLimit = 16
const defaultIpfsLimiterMaxQueueDepth = 100
const defaultIpfsAddTimeout = 2 * time.Minute

var _ models.ContentPinner = &IpfsApi{}

type addTask struct {
	node  files.Node
	label string
}

// IpfsApi pins content on a kubo node through its HTTP RPC API. Added content is pinned by the node, so no separate
// pin call is needed.
type IpfsApi struct {
	unixfs        iface.UnixfsAPI
	logger        models.Logger
	addrStr       string
	metricService models.MetricService
	limiter       *ratelimiter.RateLimiter[addTask, path.Resolved]
}

func createCoreApi(addrStr string) (*rpc.HttpApi, error) {
	addr, err := ma.NewMultiaddr(addrStr)
	if err != nil {
		c := &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		}
		return rpc.NewURLApiWithClient(addrStr, c)
	}
	return rpc.NewApi(addr)
}

func NewIpfsApi(logger models.Logger, addrStr string, metricService models.MetricService) (*IpfsApi, error) {
	coreApi, err := createCoreApi(addrStr)
	if err != nil {
		return nil, fmt.Errorf("error creating ipfs client at %s: %w", addrStr, err)
	}
	return newIpfsApiWithUnixfs(logger, addrStr, coreApi.Unixfs(), metricService), nil
}

func newIpfsApiWithUnixfs(logger models.Logger, addrStr string, unixfs iface.UnixfsAPI, metricService models.MetricService) *IpfsApi {
	ipfs := IpfsApi{unixfs: unixfs, logger: logger, addrStr: addrStr, metricService: metricService}
	limiterOpts := ratelimiter.Opts{
		Limit:             defaultIpfsRateLimit,
		Burst:             defaultIpfsBurstLimit,
		MaxQueueDepth:     defaultIpfsLimiterMaxQueueDepth,
		FullQueueStrategy: ratelimiter.BlockWhenFull,
	}
	ipfs.limiter = ratelimiter.New(limiterOpts, ipfs.limiterRunFunction)
	return &ipfs
}

func (i *IpfsApi) PinBinary(ctx context.Context, upload models.UploadRequest) (*models.PinResult, error) {
	return i.add(ctx, addTask{files.NewBytesFile(upload.Payload), upload.Filename})
}

func (i *IpfsApi) PinJson(ctx context.Context, document any) (*models.PinResult, error) {
	docBytes, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("ipfs: error encoding document: %w", err)
	}
	return i.add(ctx, addTask{files.NewBytesFile(docBytes), "json document"})
}

func (i *IpfsApi) add(ctx context.Context, task addTask) (*models.PinResult, error) {
	start := time.Now()
	defer func() {
		i.metricService.Distribution(ctx, models.MetricName_PinDurationMs, int(time.Since(start).Milliseconds()))
	}()

	resolved, err := i.limiter.Submit(ctx, task)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			i.metricService.Count(ctx, models.MetricName_PinLimited, 1)
		}
		return nil, &models.RemoteServiceError{Service: ServiceName, Message: err.Error(), Err: err}
	}
	cidStr := resolved.Cid().String()
	if err = CheckCid(cidStr); err != nil {
		return nil, &models.RemoteServiceError{Service: ServiceName, Message: err.Error(), Err: err}
	}
	return &models.PinResult{Cid: cidStr}, nil
}

func (i *IpfsApi) limiterRunFunction(ctx context.Context, task addTask) (path.Resolved, error) {
	addCtx, cancel := context.WithTimeout(ctx, defaultIpfsAddTimeout)
	defer cancel()

	i.logger.Debugf("adding %s to ipfs on %s", task.label, i.addrStr)
	resolved, err := i.unixfs.Add(addCtx, task.node, options.Unixfs.Pin(true), options.Unixfs.CidVersion(1))
	if err != nil {
		i.logger.Errorf("IPFS error adding %s on ipfs %s: %v", task.label, i.addrStr, err)
		i.metricService.Count(ctx, models.MetricName_PinError, 1)
		return nil, fmt.Errorf("adding %s failed on ipfs instance at %s: %w", task.label, i.addrStr, err)
	}
	i.logger.Debugf("added %s to ipfs on %s as %s", task.label, i.addrStr, resolved.Cid())
	return resolved, nil
}
