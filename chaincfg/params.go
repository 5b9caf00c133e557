// Package chaincfg holds the per-network parameters the explorer needs: the
// REST port convention and the genesis coinbase, synthesized locally since
// the node refuses to serve it over /rest/tx (spec.md §4.1, §7: KindGenesisTx).
// Structured the way the teacher's dagconfig/params.go and genesis.go build
// one Params value per network and a genesisCoinbaseTx built from known
// field values rather than fetched.
package chaincfg

import (
	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/wiretx"
	"github.com/pkg/errors"
)

// Network identifies which chain the explorer and node are both expected to
// be running (spec.md §6 "network" option).
type Network string

const (
	MainNet Network = "mainnet"
	TestNet Network = "testnet"
	SigNet  Network = "signet"
	RegTest Network = "regtest"
)

// Params describes one network's genesis block and default REST port.
type Params struct {
	Name            Network
	DefaultRESTPort int
	GenesisID       chainhash.Hash
	GenesisTime     uint32
	GenesisBits     uint32
	GenesisNonce    uint32
}

// ParamsFor resolves the Params for a network name, as given by the
// "network" configuration option.
func ParamsFor(n Network) (Params, error) {
	switch n {
	case MainNet:
		return mainNetParams, nil
	case TestNet:
		return testNetParams, nil
	case SigNet:
		return sigNetParams, nil
	case RegTest:
		return regTestParams, nil
	default:
		return Params{}, errors.Errorf("chaincfg: unknown network %q", n)
	}
}

var (
	mainNetParams = Params{
		Name:            MainNet,
		DefaultRESTPort: 8332,
		GenesisID:       mustHash("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"[:64]),
		GenesisTime:     1231006505,
		GenesisBits:     0x1d00ffff,
		GenesisNonce:    2083236893,
	}
	testNetParams = Params{
		Name:            TestNet,
		DefaultRESTPort: 18332,
		GenesisID:       mustHash("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"[:64]),
		GenesisTime:     1296688602,
		GenesisBits:     0x1d00ffff,
		GenesisNonce:    414098458,
	}
	sigNetParams = Params{
		Name:            SigNet,
		DefaultRESTPort: 38332,
		GenesisID:       mustHash("00000008819873e925422c1ff0f99f7cc9bbb232af63a077a11f8885993b1a99"[:64]),
		GenesisTime:     1598918400,
		GenesisBits:     0x1e0377ae,
		GenesisNonce:    52613770,
	}
	regTestParams = Params{
		Name:            RegTest,
		DefaultRESTPort: 18443,
		GenesisID:       mustHash("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206"[:64]),
		GenesisTime:     1296688602,
		GenesisBits:     0x207fffff,
		GenesisNonce:    2,
	}
)

// ChainName returns the network name as the node's getblockchaininfo "chain"
// field reports it, for bootstrap's startup network check (spec.md §7
// KindWrongNetwork).
func (p Params) ChainName() string {
	switch p.Name {
	case MainNet:
		return "main"
	case TestNet:
		return "test"
	case SigNet:
		return "signet"
	case RegTest:
		return "regtest"
	default:
		return string(p.Name)
	}
}

func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return h
}

// genesisCoinbaseScriptSig is Satoshi's well-known coinbase script, shared
// across networks (only the block header parameters differ).
var genesisCoinbaseScriptSig = []byte{
	0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x45, // height-style push + "\x04" + length 0x45
	0x54, 0x68, 0x65, 0x20, 0x54, 0x69, 0x6d, 0x65,
	0x73, 0x20, 0x30, 0x33, 0x2f, 0x4a, 0x61, 0x6e,
	0x2f, 0x32, 0x30, 0x30, 0x39, 0x20, 0x43, 0x68,
	0x61, 0x6e, 0x63, 0x65, 0x6c, 0x6c, 0x6f, 0x72,
	0x20, 0x6f, 0x6e, 0x20, 0x62, 0x72, 0x69, 0x6e,
	0x6b, 0x20, 0x6f, 0x66, 0x20, 0x73, 0x65, 0x63,
	0x6f, 0x6e, 0x64, 0x20, 0x62, 0x61, 0x69, 0x6c,
	0x6f, 0x75, 0x74, 0x20, 0x66, 0x6f, 0x72, 0x20,
	0x62, 0x61, 0x6e, 0x6b, 0x73,
}

var genesisCoinbasePkScript = []byte{
	0x41, 0x04, 0x67, 0x8a, 0xfd, 0xb0, 0xfe, 0x55,
	0x48, 0x27, 0x19, 0x67, 0xf1, 0xa6, 0x71, 0x30,
	0xb7, 0x10, 0x5c, 0xd6, 0xa8, 0x28, 0xe0, 0x39,
	0x09, 0xa6, 0x79, 0x62, 0xe0, 0xea, 0x1f, 0x61,
	0xde, 0xb6, 0x49, 0xf6, 0xbc, 0x3f, 0x4c, 0xef,
	0x38, 0xc4, 0xf3, 0x55, 0x04, 0xe5, 0x1e, 0xc1,
	0x12, 0xde, 0x5c, 0x38, 0x4d, 0xf7, 0xba, 0x0b,
	0x8d, 0x57, 0x8a, 0x4c, 0x70, 0x2b, 0x6b, 0xf1,
	0x1d, 0x5f, 0xac,
}

// GenesisCoinbase synthesizes the genesis coinbase transaction bytes
// locally rather than requesting them from the node, matching the original
// program's handling of the one transaction no node will serve over its
// transaction endpoints.
func GenesisCoinbase() []byte {
	tx := &wiretx.Tx{
		Version: 1,
		Inputs: []wiretx.TxIn{{
			PrevOut:   chainhash.Outpoint{Index: 0xffffffff},
			ScriptSig: genesisCoinbaseScriptSig,
			Sequence:  0xffffffff,
		}},
		Outputs: []wiretx.TxOut{{
			Value:    5000000000,
			PkScript: genesisCoinbasePkScript,
		}},
		LockTime: 0,
	}
	return wiretx.SerializeTx(tx)
}
