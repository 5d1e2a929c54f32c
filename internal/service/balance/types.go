package balance

import (
	"github.com/loopfi/loopchain/internal/chain"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// Status classifies a balance report. An empty account and a failed query
// are never reported the same way.
type Status string

// Report statuses.
const (
	StatusFunded Status = "funded"
	StatusEmpty  Status = "empty"
	StatusError  Status = "error"
)

// Report is the balance of one address on one network.
type Report struct {
	Network   string                 `json:"network"`
	ChainID   int64                  `json:"chain_id"`
	Address   string                 `json:"address,omitempty"`
	Balance   *chain.BalanceResult   `json:"balance,omitempty"`
	Tokens    []*chain.BalanceResult `json:"tokens,omitempty"`
	Status    Status                 `json:"status"`
	FaucetURL string                 `json:"faucet_url,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`
	Error     string                 `json:"error,omitempty"`

	// Err is the failure behind StatusError.
	Err error `json:"-"`
}

// RequireFunds fails with ErrInsufficientFunds when the report is empty
// and returns the query error when the report failed.
func (r *Report) RequireFunds() error {
	switch r.Status {
	case StatusFunded:
		return nil
	case StatusError:
		return r.Err
	default:
		err := looperr.WithDetails(looperr.ErrInsufficientFunds, map[string]string{
			"network": r.Network,
			"address": r.Address,
		})
		if r.FaucetURL != "" {
			err = looperr.WithSuggestion(err, "fund the account at "+r.FaucetURL)
		}
		return err
	}
}

// Summary counts reports by status.
type Summary struct {
	Funded int `json:"funded"`
	Empty  int `json:"empty"`
	Failed int `json:"failed"`
}

// Summarize counts reports by status.
func Summarize(reports []*Report) Summary {
	var s Summary
	for _, r := range reports {
		switch r.Status {
		case StatusFunded:
			s.Funded++
		case StatusEmpty:
			s.Empty++
		case StatusError:
			s.Failed++
		}
	}
	return s
}
