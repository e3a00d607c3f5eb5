// Package store persists tasks, categories, timers, the user profile and the
// timer running-set in a BoltDB database
package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"slices"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/notch/internal/models"
)

var (
	bucketTasks      = []byte("tasks")
	bucketCategories = []byte("categories")
	bucketTimers     = []byte("timers")
	bucketProfile    = []byte("profile")
	bucketRuntime    = []byte("runtime")

	keyProfile = []byte("profile")
)

// DefaultCategories are created the first time the database is opened.
var DefaultCategories = []models.Category{
	{ID: "work", Name: "Work", Color: "#3B82F6", IsDefault: true},
	{ID: "school", Name: "School", Color: "#10B981", IsDefault: true},
	{ID: "fun", Name: "Fun", Color: "#F59E0B", IsDefault: true},
}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
	Now func() time.Time
}

// NewClient opens (creating if necessary) the database at dbPath, ensures
// every bucket exists and seeds the default categories.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{DB: db, Now: time.Now}

	// Create the necessary buckets for storing data if they do not exist already
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			bucketTasks,
			bucketCategories,
			bucketTimers,
			bucketProfile,
			bucketRuntime,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		return c.seedCategories(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, errStoreIO.Fmt("init", "database", dbPath).Wrap(err)
	}

	return c, nil
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errStoreLocked
		}

		return nil, errStoreIO.Fmt("open", "database", pathToDB).Wrap(err)
	}

	return db, nil
}

func (c *Client) seedCategories(tx *bolt.Tx) error {
	b := tx.Bucket(bucketCategories)
	if k, _ := b.Cursor().First(); k != nil {
		return nil
	}

	now := c.Now()

	for _, cat := range DefaultCategories {
		cat.CreatedAt, cat.UpdatedAt = now, now

		v, err := json.Marshal(cat)
		if err != nil {
			return err
		}

		if err := b.Put([]byte(cat.ID), v); err != nil {
			return err
		}
	}

	return nil
}

// getAll decodes every record in a bucket, in key order.
func getAll[T any](ctx context.Context, c *Client, bucket []byte) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []T

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			var r T
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}

			records = append(records, r)

			return nil
		})
	})
	if err != nil {
		return nil, errStoreIO.Fmt("list", string(bucket), "*").Wrap(err)
	}

	return records, nil
}

func get[T any](
	ctx context.Context,
	c *Client,
	bucket []byte,
	kind, id string,
) (T, error) {
	var r T

	if err := ctx.Err(); err != nil {
		return r, err
	}

	var found bool

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		found = true

		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return r, errStoreIO.Fmt("get", kind, id).Wrap(err)
	}

	if !found {
		return r, ErrRecordNotFound.Fmt(kind, id)
	}

	return r, nil
}

// write stores v under id. With mustNotExist set it behaves as an insert
// and fails if the id is taken.
func write(
	ctx context.Context,
	c *Client,
	bucket []byte,
	kind, id string,
	v any,
	mustNotExist bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(v)
	if err != nil {
		return errStoreIO.Fmt("encode", kind, id).Wrap(err)
	}

	var exists bool

	err = c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)

		if mustNotExist && b.Get([]byte(id)) != nil {
			exists = true
			return nil
		}

		return b.Put([]byte(id), value)
	})
	if err != nil {
		return errStoreIO.Fmt("put", kind, id).Wrap(err)
	}

	if exists {
		return errRecordExists.Fmt(kind, id)
	}

	return nil
}

// del removes id from the bucket. Deleting a missing id is not an error.
func del(ctx context.Context, c *Client, bucket []byte, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(id))
	})
	if err != nil {
		return errStoreIO.Fmt("delete", kind, id).Wrap(err)
	}

	return nil
}

func byCreation[T any](records []T, created func(T) time.Time, id func(T) string) {
	slices.SortStableFunc(records, func(a, b T) int {
		if n := created(a).Compare(created(b)); n != 0 {
			return n
		}

		return cmp.Compare(id(a), id(b))
	})
}

// ListTasks returns every stored task in creation order.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := getAll[models.Task](ctx, c, bucketTasks)
	if err != nil {
		return nil, err
	}

	byCreation(
		tasks,
		func(t models.Task) time.Time { return t.CreatedAt },
		func(t models.Task) string { return t.ID },
	)

	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	return get[models.Task](ctx, c, bucketTasks, "task", id)
}

// AddTask inserts a new task.
func (c *Client) AddTask(ctx context.Context, t *models.Task) error {
	if t.IsRecurringInstance {
		return errOccurrenceWrite.Fmt(t.ID, t.OriginalID)
	}

	now := c.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	t.UpdatedAt = now

	return write(ctx, c, bucketTasks, "task", t.ID, t, true)
}

// PutTask inserts or replaces a task.
func (c *Client) PutTask(ctx context.Context, t *models.Task) error {
	if t.IsRecurringInstance {
		return errOccurrenceWrite.Fmt(t.ID, t.OriginalID)
	}

	now := c.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	t.UpdatedAt = now

	return write(ctx, c, bucketTasks, "task", t.ID, t, false)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return del(ctx, c, bucketTasks, "task", id)
}

// ListCategories returns every category in creation order.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := getAll[models.Category](ctx, c, bucketCategories)
	if err != nil {
		return nil, err
	}

	byCreation(
		cats,
		func(c models.Category) time.Time { return c.CreatedAt },
		func(c models.Category) string { return c.ID },
	)

	return cats, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return get[models.Category](ctx, c, bucketCategories, "category", id)
}

func (c *Client) AddCategory(ctx context.Context, cat *models.Category) error {
	now := c.Now()
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = now
	}

	cat.UpdatedAt = now

	return write(ctx, c, bucketCategories, "category", cat.ID, cat, true)
}

func (c *Client) PutCategory(ctx context.Context, cat *models.Category) error {
	cat.UpdatedAt = c.Now()

	return write(ctx, c, bucketCategories, "category", cat.ID, cat, false)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return del(ctx, c, bucketCategories, "category", id)
}

// ListTimers returns every timer in creation order.
func (c *Client) ListTimers(ctx context.Context) ([]models.Timer, error) {
	timers, err := getAll[models.Timer](ctx, c, bucketTimers)
	if err != nil {
		return nil, err
	}

	byCreation(
		timers,
		func(t models.Timer) time.Time { return t.CreatedAt },
		func(t models.Timer) string { return t.ID },
	)

	return timers, nil
}

func (c *Client) GetTimer(ctx context.Context, id string) (models.Timer, error) {
	return get[models.Timer](ctx, c, bucketTimers, "timer", id)
}

// AddTimer inserts a timer, assigning it the next id from the timers
// bucket sequence when it has none.
func (c *Client) AddTimer(ctx context.Context, t *models.Timer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.ID == "" {
		err := c.Update(func(tx *bolt.Tx) error {
			seq, err := tx.Bucket(bucketTimers).NextSequence()
			if err != nil {
				return err
			}

			t.ID = strconv.FormatUint(seq, 10)

			return nil
		})
		if err != nil {
			return errStoreIO.Fmt("sequence", "timer", "").Wrap(err)
		}
	}

	now := c.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	t.UpdatedAt = now

	return write(ctx, c, bucketTimers, "timer", t.ID, t, true)
}

// PutTimer inserts or replaces a timer.
func (c *Client) PutTimer(ctx context.Context, t *models.Timer) error {
	now := c.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	t.UpdatedAt = now

	return write(ctx, c, bucketTimers, "timer", t.ID, t, false)
}

func (c *Client) DeleteTimer(ctx context.Context, id string) error {
	return del(ctx, c, bucketTimers, "timer", id)
}

// GetProfile returns the singleton profile record.
func (c *Client) GetProfile(ctx context.Context) (models.Profile, error) {
	return get[models.Profile](ctx, c, bucketProfile, "profile", string(keyProfile))
}

// PutProfile replaces the singleton profile record.
func (c *Client) PutProfile(ctx context.Context, p *models.Profile) error {
	now := c.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	p.UpdatedAt = now

	return write(ctx, c, bucketProfile, "profile", string(keyProfile), p, false)
}
