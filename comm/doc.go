// Package comm is the communication substrate shared by every process in
// a distributed-algorithm testbed. It provides a Lamport clock per
// process, a holding buffer for out-of-order protocol traffic, tagged
// send/receive/broadcast operations over a pluggable transport, and a
// multi-tag dispatcher.
package comm
