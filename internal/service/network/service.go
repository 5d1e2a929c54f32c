// Package network diagnoses RPC connectivity and credential setup of the
// configured networks.
package network

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopfi/loopchain/internal/chain"
	"github.com/loopfi/loopchain/internal/config"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// Client is the chain access a diagnosis needs. Satisfied by *evm.Client.
type Client interface {
	chain.AccountResolver
	RemoteChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// ClientFactory opens a client bound to network.
type ClientFactory func(network config.Network) (Client, error)

// Diagnosis statuses.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// Diagnosis is the result of probing one network.
type Diagnosis struct {
	Network           string        `json:"network"`
	RPCURL            string        `json:"rpc_url"`
	ConfiguredChainID int64         `json:"configured_chain_id"`
	RemoteChainID     int64         `json:"remote_chain_id,omitempty"`
	ChainIDMatch      bool          `json:"chain_id_match"`
	LatestBlock       uint64        `json:"latest_block,omitempty"`
	Latency           time.Duration `json:"latency_ns,omitempty"`
	CredentialLoaded  bool          `json:"credential_loaded"`
	SignerAddress     string        `json:"signer_address,omitempty"`
	Status            string        `json:"status"`
	Error             string        `json:"error,omitempty"`

	// Err is the failure behind StatusError or StatusMismatch.
	Err error `json:"-"`
}

// Service diagnoses networks.
type Service struct {
	factory ClientFactory
	logger  *config.Logger
}

// NewService creates a diagnostics service.
func NewService(factory ClientFactory, logger *config.Logger) *Service {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Service{factory: factory, logger: logger}
}

// Diagnose checks that the RPC endpoint of network answers, that it serves the
// configured chain, and whether a signing credential is loaded. A missing
// credential is reported, not treated as a failure.
func (s *Service) Diagnose(ctx context.Context, network config.Network) *Diagnosis {
	d := &Diagnosis{
		Network:           network.Name,
		RPCURL:            network.RPCURL,
		ConfiguredChainID: network.ChainID,
		Status:            StatusOK,
	}

	client, err := s.factory(network)
	if err != nil {
		return d.fail(err)
	}
	defer client.Close()

	account, err := client.ResolveActiveAccount()
	switch {
	case err == nil:
		d.CredentialLoaded = true
		d.SignerAddress = account.Address
	case !errors.Is(err, looperr.ErrNoCredential):
		return d.fail(err)
	}

	start := time.Now()
	block, err := client.BlockNumber(ctx)
	if err != nil {
		return d.fail(err)
	}
	d.Latency = time.Since(start)
	d.LatestBlock = block

	remote, err := client.RemoteChainID(ctx)
	if err != nil {
		return d.fail(err)
	}
	d.RemoteChainID = remote.Int64()
	d.ChainIDMatch = remote.Cmp(big.NewInt(network.ChainID)) == 0
	if !d.ChainIDMatch {
		d.Status = StatusMismatch
		d.Err = looperr.WithDetails(looperr.ErrChainIDMismatch, map[string]string{
			"network":    network.Name,
			"configured": big.NewInt(network.ChainID).String(),
			"remote":     remote.String(),
		})
		d.Error = d.Err.Error()
	}

	s.logger.Debug("diagnose %s: block %d chain %d in %s", network.Name, d.LatestBlock, d.RemoteChainID, d.Latency)
	return d
}

// DiagnoseAll diagnoses networks concurrently and returns diagnoses ordered by name.
func (s *Service) DiagnoseAll(ctx context.Context, networks []config.Network) []*Diagnosis {
	sorted := append([]config.Network(nil), networks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]*Diagnosis, len(sorted))
	var g errgroup.Group
	for i, n := range sorted {
		g.Go(func() error {
			out[i] = s.Diagnose(ctx, n)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// FirstError returns the first failure among diagnoses, or nil.
func FirstError(diagnoses []*Diagnosis) error {
	for _, d := range diagnoses {
		if d.Err != nil {
			return d.Err
		}
	}
	return nil
}

func (d *Diagnosis) fail(err error) *Diagnosis {
	d.Status = StatusError
	d.Err = err
	d.Error = config.RedactURLs(err.Error())
	return d
}
