package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// CodeReader is the part of an Ethereum client the detector needs.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

var (
	_ ContractDetector = (*EthContractDetector)(nil)
	_ ContractDetector = (*StaticContractDetector)(nil)
)

// EthContractDetector treats any address with deployed code as a contract.
type EthContractDetector struct {
	reader CodeReader
	close  func()
}

// DialContractDetector connects to an Ethereum JSON-RPC endpoint.
func DialContractDetector(ctx context.Context, rpcURL string) (*EthContractDetector, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	logrus.Infof("contract detection connected to %s", rpcURL)
	return &EthContractDetector{reader: client, close: client.Close}, nil
}

// NewEthContractDetector wraps an existing code reader.
func NewEthContractDetector(reader CodeReader) *EthContractDetector {
	return &EthContractDetector{reader: reader}
}

// IsContract checks the latest state for code at addr.
func (d *EthContractDetector) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	code, err := d.reader.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// Close releases the RPC connection.
func (d *EthContractDetector) Close() {
	if d.close != nil {
		d.close()
	}
}

// StaticContractDetector answers from a fixed address list.
type StaticContractDetector struct {
	mu        sync.RWMutex
	contracts map[common.Address]bool
}

func NewStaticContractDetector(contracts ...common.Address) *StaticContractDetector {
	d := &StaticContractDetector{contracts: make(map[common.Address]bool, len(contracts))}
	for _, c := range contracts {
		d.contracts[c] = true
	}
	return d
}

func (d *StaticContractDetector) IsContract(_ context.Context, addr common.Address) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.contracts[addr], nil
}

// Add marks addr as a contract.
func (d *StaticContractDetector) Add(addr common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contracts[addr] = true
}
