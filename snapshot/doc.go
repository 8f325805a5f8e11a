/*
Package snapshot persists on-chain state of the FundMe contract set.

A snapshot holds contract states and raw storage items pulled from a network
at some height. It allows to inspect funding records offline (see
DecodeFundMe) and to compare deployments across networks.

Snapshots are stored in the file system using human-readable encoding.
*/
package snapshot
