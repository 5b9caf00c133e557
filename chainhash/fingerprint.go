package chainhash

import "hash/fnv"

// FingerprintScript computes the non-cryptographic fingerprint used as the
// funding-keyspace key prefix in the persistent address index (spec.md §3).
func FingerprintScript(script []byte) ScriptFingerprint {
	h := fnv.New64a()
	_, _ = h.Write(script)
	return ScriptFingerprint(h.Sum64())
}

// FingerprintOutpoint computes the spending-keyspace key prefix: the first 8
// bytes of the txid plus the output index, as specified in spec.md §3.
func FingerprintOutpoint(o Outpoint) OutpointFingerprint {
	var fp OutpointFingerprint
	copy(fp[:8], o.TxID[:8])
	fp[8] = byte(o.Index)
	fp[9] = byte(o.Index >> 8)
	fp[10] = byte(o.Index >> 16)
	fp[11] = byte(o.Index >> 24)
	return fp
}
