/*
Package hedera is a client for submitting transactions and queries to the
consensus nodes of a hedera network.

A Client holds the node address book, the mirror node addresses, the
operator that pays for and signs requests, and the retry settings. Every
request is dispatched by the same loop: pick a healthy node, send, and on a
busy or unreachable node back off and move to the next one until the
request succeeds or its attempts run out.

Transactions are frozen into one body per node before signing. Signatures
can be collected externally, per node, and combined with the operator's.
*/

package hedera
