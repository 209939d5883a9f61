package verify

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// verifyHeader serves eth_blockNumber and colibri_blockHash, which only
// need the payload header fields of a signed block.
func verifyHeader(c *call) (any, error) {
	p, err := c.proofOf(ProofHeader)
	if err != nil {
		return nil, err
	}
	block, err := c.verifyBlock(p.Get("block"), HeaderFields, nil)
	if err != nil {
		return nil, err
	}

	if c.method == "eth_blockNumber" {
		d, err := c.dataOf(DataBlockNumber)
		if err != nil {
			return nil, err
		}
		if d.IsValid() && d.Uint64() != block.Number {
			return nil, structural(ErrMismatch, "block number: proven %d", block.Number)
		}
		if err := parseArgs(c.args, 0); err != nil {
			return nil, err
		}
		return hexutil.Uint64(block.Number), nil
	}

	d, err := c.dataOf(DataHash)
	if err != nil {
		return nil, err
	}
	if d.IsValid() && common.Hash(d.Bytes32()) != block.Hash {
		return nil, structural(ErrMismatch, "block hash: proven %s", block.Hash)
	}
	var ref BlockRef
	if err := parseArgs(c.args, 1, &ref); err != nil {
		return nil, err
	}
	if err := ref.check(block.Number, block.Hash); err != nil {
		return nil, err
	}
	return block.Hash, nil
}
