// Package dedup merges normalized events that describe the same real-world
// event.
//
// Events are bucketed by start date; inside a bucket every pair is scored on
// title and location similarity and pairs clearing both thresholds are joined
// by union-find. Each resulting group elects one canonical record, which is
// backfilled from the other members (witnesses) before it is returned.
package dedup
