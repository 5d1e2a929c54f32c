// Package balance checks account balances on one or every configured network.
package balance

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/loopfi/loopchain/internal/config"
)

// DefaultMaxConcurrent bounds the networks queried at once by CheckAll.
const DefaultMaxConcurrent = 4

// Config holds the configuration for the balance service.
type Config struct {
	Networks      map[string]config.Network
	Factory       ClientFactory
	IncludeTokens bool
	MaxConcurrent int
	Logger        *config.Logger
}

// Service checks balances.
type Service struct {
	networks      map[string]config.Network
	factory       ClientFactory
	includeTokens bool
	maxConcurrent int
	logger        *config.Logger
}

// NewService creates a new balance service.
func NewService(cfg *Config) *Service {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Service{
		networks:      cfg.Networks,
		factory:       cfg.Factory,
		includeTokens: cfg.IncludeTokens,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Check returns the balance of address on network. A query failure is
// returned as the error and also recorded in the report.
func (s *Service) Check(ctx context.Context, network config.Network, address string) (*Report, error) {
	client, err := s.factory.Open(network)
	if err != nil {
		return s.failed(network, address, err), err
	}
	defer client.Close()

	if err = client.ValidateAddress(address); err != nil {
		return s.failed(network, address, err), err
	}
	return s.check(ctx, client, network, address)
}

// CheckActive resolves the active account of network and returns its balance.
// Without a credential it fails with ErrNoCredential before any network call.
func (s *Service) CheckActive(ctx context.Context, network config.Network) (*Report, error) {
	client, err := s.factory.Open(network)
	if err != nil {
		return s.failed(network, "", err), err
	}
	defer client.Close()

	account, err := client.ResolveActiveAccount()
	if err != nil {
		return s.failed(network, "", err), err
	}
	return s.check(ctx, client, network, account.Address)
}

// CheckAll checks every configured network concurrently, ordered by network
// name. An empty address checks the active account of each network. One
// network failing never aborts the others; its report carries StatusError.
func (s *Service) CheckAll(ctx context.Context, address string) ([]*Report, error) {
	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]*Report, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, name := range names {
		network := s.networks[name]
		g.Go(func() error {
			if address == "" {
				reports[i], _ = s.CheckActive(gctx, network)
			} else {
				reports[i], _ = s.Check(gctx, network, address)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}

func (s *Service) check(ctx context.Context, client Client, network config.Network, address string) (*Report, error) {
	native, err := client.GetBalance(ctx, address)
	if err != nil {
		s.logger.Error("balance %s %s: %v", network.Name, address, err)
		return s.failed(network, address, err), err
	}

	report := &Report{
		Network: network.Name,
		ChainID: network.ChainID,
		Address: native.Address,
		Balance: native,
		Status:  StatusFunded,
	}

	if s.includeTokens {
		for _, token := range network.Tokens {
			held, tokenErr := client.GetTokenBalance(ctx, address, token)
			if tokenErr != nil {
				if errors.Is(tokenErr, context.Canceled) {
					return s.failed(network, address, tokenErr), tokenErr
				}
				report.Warnings = append(report.Warnings, token.Symbol+": "+config.RedactURLs(tokenErr.Error()))
				continue
			}
			report.Tokens = append(report.Tokens, held)
		}
	}

	if native.IsZero() {
		report.Status = StatusEmpty
		report.FaucetURL = network.FaucetURL
	}

	s.logger.Debug("balance %s %s: %s %s (%s)", network.Name, report.Address, native.Formatted, native.Symbol, report.Status)
	return report, nil
}

func (s *Service) failed(network config.Network, address string, err error) *Report {
	return &Report{
		Network: network.Name,
		ChainID: network.ChainID,
		Address: address,
		Status:  StatusError,
		Error:   config.RedactURLs(err.Error()),
		Err:     err,
	}
}

