package store

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

// RunningTimersKey is the runtime bucket key holding the running-set, a
// JSON object mapping timer ids to start epochs in milliseconds.
const RunningTimersKey = "running-timers"

// RunningSet is the persisted set of running timers. Each method runs in a
// single transaction.
type RunningSet struct {
	c *Client
}

// RunningSet returns the persisted running-set backed by this client.
func (c *Client) RunningSet() *RunningSet {
	return &RunningSet{c: c}
}

// All returns a copy of every entry.
func (r *RunningSet) All(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries map[string]int64

	err := r.c.View(func(tx *bolt.Tx) error {
		var err error

		entries, err = decodeRunning(tx)

		return err
	})
	if err != nil {
		return nil, errStoreIO.Fmt("get", "running-set", RunningTimersKey).Wrap(err)
	}

	return entries, nil
}

// Set records the start epoch of a timer.
func (r *RunningSet) Set(ctx context.Context, id string, epochMillis int64) error {
	return r.update(ctx, id, func(m map[string]int64) {
		m[id] = epochMillis
	})
}

// Delete removes a timer. Removing an absent id is not an error.
func (r *RunningSet) Delete(ctx context.Context, id string) error {
	return r.update(ctx, id, func(m map[string]int64) {
		delete(m, id)
	})
}

func (r *RunningSet) update(
	ctx context.Context,
	id string,
	fn func(map[string]int64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.c.Update(func(tx *bolt.Tx) error {
		entries, err := decodeRunning(tx)
		if err != nil {
			return err
		}

		fn(entries)

		v, err := json.Marshal(entries)
		if err != nil {
			return err
		}

		return tx.Bucket(bucketRuntime).Put([]byte(RunningTimersKey), v)
	})
	if err != nil {
		return errStoreIO.Fmt("put", "running-set", id).Wrap(err)
	}

	return nil
}

func decodeRunning(tx *bolt.Tx) (map[string]int64, error) {
	entries := make(map[string]int64)

	v := tx.Bucket(bucketRuntime).Get([]byte(RunningTimersKey))
	if v == nil {
		return entries, nil
	}

	if err := json.Unmarshal(v, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
