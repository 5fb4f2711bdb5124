package hedera

import (
	"bytes"
	"sort"
)

// SignatureMap holds at most one signature per public key per node.
type SignatureMap map[AccountID]map[PublicKey][]byte

// upsert stores signature for key on node, replacing any earlier one.
func (m SignatureMap) upsert(node AccountID, key PublicKey, signature []byte) {
	node = node.WithoutChecksum()
	signatures, ok := m[node]
	if !ok {
		signatures = map[PublicKey][]byte{}
		m[node] = signatures
	}
	signatures[key] = append([]byte{}, signature...)
}

func (m SignatureMap) has(node AccountID, key PublicKey) bool {
	_, ok := m[node.WithoutChecksum()][key]
	return ok
}

func (m SignatureMap) clone() SignatureMap {
	out := make(SignatureMap, len(m))
	for node, signatures := range m {
		copied := make(map[PublicKey][]byte, len(signatures))
		for key, signature := range signatures {
			copied[key] = append([]byte{}, signature...)
		}
		out[node] = copied
	}
	return out
}

// pairs returns a node's signatures ordered by public key bytes so the
// encoded transaction does not depend on map iteration.
func (m SignatureMap) pairs(node AccountID) []wireSignaturePair {
	signatures := m[node.WithoutChecksum()]
	pairs := make([]wireSignaturePair, 0, len(signatures))
	for key, signature := range signatures {
		pairs = append(pairs, wireSignaturePair{PublicKey: key.Bytes(), Signature: signature})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].PublicKey, pairs[j].PublicKey) < 0
	})
	return pairs
}
