// Package wallet loads the Solana identity and the chain program handle
// an upload command runs with.
package wallet

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// CandyMachineV2ProgramID is the on-chain candy machine v2 program.
const CandyMachineV2ProgramID = "cndy3Z4yapfJBmL3ShUp5exZKqR3z33thTzeNMm2gRZ"

// Environments lists the supported cluster names.
var Environments = []string{"devnet", "testnet", "mainnet-beta", "localnet"}

// LoadKeypair reads a Solana CLI keypair file, a JSON array of 64 bytes.
func LoadKeypair(fpath string) (types.Account, error) {
	if strings.TrimSpace(fpath) == "" {
		return types.Account{}, errors.New("keypair path is empty")
	}

	cnt, err := os.ReadFile(fpath)
	if err != nil {
		return types.Account{}, errors.Wrapf(err, "read keypair %q", fpath)
	}

	return ParseKeypair(cnt)
}

// ParseKeypair decodes a `[int,int,...]` keypair document.
func ParseKeypair(cnt []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(cnt, &ints); err != nil {
		return types.Account{}, errors.Wrap(err, "keypair must be a json int array")
	}
	if len(ints) != 64 {
		return types.Account{}, errors.Errorf("unexpected keypair length: got %d, want 64", len(ints))
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, errors.Errorf("keypair byte out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}

	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, errors.Wrap(err, "decode keypair")
	}

	return acc, nil
}

// RPCEndpoint resolves the cluster RPC url, rpcURL overrides env when set.
func RPCEndpoint(env, rpcURL string) (string, error) {
	if rpcURL = strings.TrimSpace(rpcURL); rpcURL != "" {
		return rpcURL, nil
	}

	switch env {
	case "devnet":
		return rpc.DevnetRPCEndpoint, nil
	case "testnet":
		return rpc.TestnetRPCEndpoint, nil
	case "mainnet-beta":
		return rpc.MainnetRPCEndpoint, nil
	case "localnet":
		return rpc.LocalnetRPCEndpoint, nil
	default:
		return "", errors.Errorf("unknown env %q", env)
	}
}

// AccountInfoGetter fetches an account from the cluster.
// *client.Client implements it.
type AccountInfoGetter interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
}

// Program is a handle on a deployed on-chain program.
type Program struct {
	ID     string
	Env    string
	RPCURL string
}

// NewRPCClient creates a cluster client for env.
func NewRPCClient(env, rpcURL string) (*client.Client, string, error) {
	endpoint, err := RPCEndpoint(env, rpcURL)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	return client.NewClient(endpoint), endpoint, nil
}

// LoadProgram checks that programID is deployed and executable on the cluster.
func LoadProgram(ctx context.Context,
	getter AccountInfoGetter, programID, env, endpoint string) (*Program, error) {
	info, err := getter.GetAccountInfo(ctx, programID)
	if err != nil {
		return nil, errors.Wrapf(err, "get program account %s", programID)
	}
	if !info.Executable {
		return nil, errors.Errorf("account %s on %s is not an executable program", programID, env)
	}

	return &Program{
		ID:     programID,
		Env:    env,
		RPCURL: endpoint,
	}, nil
}
