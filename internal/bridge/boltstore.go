package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/pkg/compression"
	"github.com/dragclip/dragclip/pkg/exchange"
)

const (
	clipboardBucket = "clipboard"
	currentKey      = "current"

	// promoteTimeout bounds the eager resolution of one representation at
	// write time. The bolt backend has no delayed rendering, so every
	// format is promoted exactly once when the clipboard is written.
	promoteTimeout = 15 * time.Second
)

// Bolt is the headless clipboard bridge: it promotes providers at write
// time and stores the promoted entry in a bbolt file, so separate
// processes (and separate CLI invocations) share one clipboard without a
// display server. Only the current entry is kept, never a history. Drag
// sessions are not supported.
type Bolt struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// boltItem is the stored form of one promoted item.
type boltItem struct {
	SuggestedName string            `json:"suggested_name,omitempty"`
	Order         []string          `json:"order"`
	Data          map[string][]byte `json:"data"`
	Compressed    map[string]bool   `json:"compressed,omitempty"`
}

// NewBolt opens (or creates) the clipboard store at path.
func NewBolt(path string, logger *zap.Logger) (*Bolt, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open clipboard store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(clipboardBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create clipboard bucket: %w", err)
	}
	return &Bolt{db: db, logger: logger}, nil
}

func (b *Bolt) Name() string { return "bolt" }

func (b *Bolt) BeginDrag(sessionID string, source DataSource) error {
	return ErrDragUnsupported
}

// WriteClipboard promotes every representation of every item once and
// stores the result. A representation that fails to resolve is dropped
// from the entry; the write fails only when nothing promoted at all.
func (b *Bolt) WriteClipboard(source DataSource) error {
	items := make([]boltItem, 0, source.Items())
	promoted := 0
	for i := 0; i < source.Items(); i++ {
		item := exchange.Item(i)
		entry := boltItem{
			SuggestedName: source.SuggestedName(item),
			Data:          make(map[string][]byte),
			Compressed:    make(map[string]bool),
		}
		for _, format := range source.Formats(item) {
			ctx, cancel := context.WithTimeout(context.Background(), promoteTimeout)
			data, err := source.Resolve(ctx, item, format)
			cancel()
			if err != nil {
				b.logger.Warn("format dropped from promoted entry",
					zap.Int("item", i),
					zap.String("format", string(format)),
					zap.Error(err))
				continue
			}
			stored, compressed, err := compression.Compress(data)
			if err != nil {
				return fmt.Errorf("store format %q: %w", format, err)
			}
			entry.Order = append(entry.Order, string(format))
			entry.Data[string(format)] = stored
			entry.Compressed[string(format)] = compressed
			promoted++
		}
		items = append(items, entry)
	}
	if promoted == 0 {
		return fmt.Errorf("no representation could be promoted: %w", exchange.ErrNotAvailable)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode clipboard entry: %w", err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(clipboardBucket)).Put([]byte(currentKey), raw)
	})
	if err != nil {
		return fmt.Errorf("store clipboard entry: %w", err)
	}
	b.logger.Debug("clipboard entry promoted",
		zap.Int("items", len(items)),
		zap.Int("formats", promoted))
	return nil
}

func (b *Bolt) ReadClipboard() (exchange.DataReader, error) {
	var raw []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(clipboardBucket)).Get([]byte(currentKey))
		if v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load clipboard entry: %w", err)
	}
	if raw == nil {
		return NewStaticReader(nil), nil
	}
	var items []boltItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode clipboard entry: %w", err)
	}
	static := make([]StaticItem, 0, len(items))
	for _, it := range items {
		si := StaticItem{
			SuggestedName: it.SuggestedName,
			Data:          make(map[exchange.Format][]byte, len(it.Data)),
		}
		for _, f := range it.Order {
			data := it.Data[f]
			if it.Compressed[f] {
				var err error
				data, err = compression.Decompress(data)
				if err != nil {
					return nil, fmt.Errorf("format %q: %w", f, err)
				}
			}
			si.Order = append(si.Order, exchange.Format(f))
			si.Data[exchange.Format(f)] = data
		}
		static = append(static, si)
	}
	return NewStaticReader(static), nil
}

func (b *Bolt) ReadDrop(ev DropEvent) (exchange.DataReader, error) {
	return NewSourceReader(ev.Source), nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
