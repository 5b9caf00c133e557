package addrindex

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/scripthash"
	"github.com/RCasatta/fbbe/wiretx"
)

// AddressSeen is one entry of an address's history (spec.md §4.6): a
// funding outpoint and block, plus spending details if the output has since
// been spent.
type AddressSeen struct {
	FundingOutpoint chainhash.Outpoint
	FundingBlock    chainhash.Hash
	FundingTime     uint32

	Spent          bool
	SpendingTxID   chainhash.Hash
	SpendingInput  int
	SpendingBlock  chainhash.Hash
	SpendingTime   uint32
}

// AddressHistory implements spec.md §4.6's two-pass address_history: the
// first pass resolves funding heights for the address's script fingerprint
// into actual matching outpoints (verifying the fingerprint collision by
// inspecting the real script bytes); the second pass resolves a spending
// height for each of those outpoints into the spending transaction.
func (idx *Indexer) AddressHistory(ctx context.Context, address string) ([]AddressSeen, error) {
	script, err := scripthash.ScriptForAddress(address)
	if err != nil {
		return nil, err
	}
	fp := chainhash.FingerprintScript(script)

	heights, err := idx.store.HeightsForScript(fp)
	if err != nil {
		return nil, err
	}

	var out []AddressSeen
	for _, h := range heights {
		id, err := idx.state.HashForHeight(ctx, h)
		if err != nil {
			continue
		}
		raw, err := idx.node.BlockBytes(ctx, id)
		if err != nil {
			continue
		}
		block, err := wiretx.ParseBlock(raw)
		if err != nil {
			continue
		}

		for _, tx := range block.Transactions {
			for oi, out2 := range tx.Outputs {
				if !matchesScript(out2.PkScript, script) {
					continue
				}
				seen := AddressSeen{
					FundingOutpoint: chainhash.Outpoint{TxID: tx.ID(), Index: uint32(oi)},
					FundingBlock:    id,
					FundingTime:     block.Header.Timestamp,
				}
				idx.resolveSpending(ctx, &seen)
				out = append(out, seen)
			}
		}
	}
	return out, nil
}

func matchesScript(candidate, want []byte) bool {
	if len(candidate) != len(want) {
		return false
	}
	for i := range candidate {
		if candidate[i] != want[i] {
			return false
		}
	}
	return true
}

// resolveSpending runs the second pass: find the spending height (if any),
// fetch that block, and locate the transaction/input spending the outpoint
// via a block visitor, mirroring the output-to-transaction redirect of
// spec.md §4.8.
func (idx *Indexer) resolveSpending(ctx context.Context, seen *AddressSeen) {
	fp := chainhash.FingerprintOutpoint(seen.FundingOutpoint)
	height, ok, err := idx.store.SpendingHeight(fp)
	if err != nil || !ok {
		return
	}

	id, err := idx.state.HashForHeight(ctx, height)
	if err != nil {
		return
	}
	raw, err := idx.node.BlockBytes(ctx, id)
	if err != nil {
		return
	}
	block, err := wiretx.ParseBlock(raw)
	if err != nil {
		return
	}
	ti, ii, found := block.FindSpender(seen.FundingOutpoint)
	if !found {
		return
	}

	seen.Spent = true
	seen.SpendingTxID = block.Transactions[ti].ID()
	seen.SpendingInput = ii
	seen.SpendingBlock = id
	seen.SpendingTime = block.Header.Timestamp
}
